// Package repo implements the data persistence layer for domain entities.
// This file provides the Redis-backed store for per-account DM automation.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/kv"
)

const dmIndexKey = "automations:dm"

func dmRuleKey(accountID string) string { return "automation:dm:" + accountID }

// DMAutomationRepo stores DMAutomationRule values keyed by account id.
type DMAutomationRepo struct {
	kv  kv.Store
	now func() time.Time
}

// NewDMAutomationRepo returns a repository over s.
func NewDMAutomationRepo(s kv.Store) *DMAutomationRepo {
	return &DMAutomationRepo{kv: s, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the DM rule for accountID, or (nil, nil) when none is configured.
func (r *DMAutomationRepo) Get(ctx context.Context, accountID string) (*domain.DMAutomationRule, error) {
	raw, err := r.kv.Get(ctx, dmRuleKey(accountID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rule domain.DMAutomationRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return nil, fmt.Errorf("decode dm automation %s: %w", accountID, err)
	}
	return &rule, nil
}

// Save overwrites the DM rule for accountID and stamps UpdatedAt.
func (r *DMAutomationRepo) Save(ctx context.Context, accountID string, rule *domain.DMAutomationRule) error {
	rule.UpdatedAt = r.now()
	b, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, dmRuleKey(accountID), string(b), 0); err != nil {
		return err
	}
	return r.kv.SAdd(ctx, dmIndexKey, accountID)
}

// Delete removes the DM rule for accountID and reports whether it existed.
func (r *DMAutomationRepo) Delete(ctx context.Context, accountID string) (bool, error) {
	n, err := r.kv.Del(ctx, dmRuleKey(accountID))
	if err != nil {
		return false, err
	}
	if err := r.kv.SRem(ctx, dmIndexKey, accountID); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAccounts returns the sorted ids of accounts with a DM rule.
func (r *DMAutomationRepo) ListAccounts(ctx context.Context) ([]string, error) {
	ids, err := r.kv.SMembers(ctx, dmIndexKey)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
