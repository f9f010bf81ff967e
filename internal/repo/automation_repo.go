// Package repo implements the data persistence layer for domain entities.
// This file provides the Redis-backed store for per-media automation rules.
//
// Key layout:
//
//	automation:reel:{mediaId}      JSON AutomationRule
//	automations:reels              set of every configured media id
//	user:{ownerUserId}:automations set of media ids owned by a dashboard user
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/kv"
)

const (
	reelRuleKeyPrefix = "automation:reel:"
	reelIndexKey      = "automations:reels"
)

func reelRuleKey(mediaID string) string { return reelRuleKeyPrefix + mediaID }

func ownerIndexKey(owner string) string { return "user:" + owner + ":automations" }

// AutomationRepo stores AutomationRule values keyed by media id.
type AutomationRepo struct {
	kv  kv.Store
	now func() time.Time
}

// NewAutomationRepo returns a repository over s.
func NewAutomationRepo(s kv.Store) *AutomationRepo {
	return &AutomationRepo{kv: s, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the rule for mediaID, or (nil, nil) when none is configured.
func (r *AutomationRepo) Get(ctx context.Context, mediaID string) (*domain.AutomationRule, error) {
	raw, err := r.kv.Get(ctx, reelRuleKey(mediaID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rule domain.AutomationRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return nil, fmt.Errorf("decode automation %s: %w", mediaID, err)
	}
	return &rule, nil
}

// Save upserts the rule for mediaID. CreatedAt is kept from the stored rule,
// UpdatedAt is refreshed, and the index sets follow the rule's owner. The
// returned bool reports whether the rule did not exist before.
func (r *AutomationRepo) Save(ctx context.Context, mediaID string, rule *domain.AutomationRule) (bool, error) {
	prev, err := r.Get(ctx, mediaID)
	if err != nil {
		return false, err
	}

	now := r.now()
	rule.UpdatedAt = now
	if prev != nil && !prev.CreatedAt.IsZero() {
		rule.CreatedAt = prev.CreatedAt
	} else {
		rule.CreatedAt = now
	}

	b, err := json.Marshal(rule)
	if err != nil {
		return false, err
	}
	if err := r.kv.Set(ctx, reelRuleKey(mediaID), string(b), 0); err != nil {
		return false, err
	}
	if err := r.kv.SAdd(ctx, reelIndexKey, mediaID); err != nil {
		return false, err
	}
	if owner := rule.Owner(); owner != "" {
		if err := r.kv.SAdd(ctx, ownerIndexKey(owner), mediaID); err != nil {
			return false, err
		}
	}
	if prev != nil && prev.Owner() != "" && prev.Owner() != rule.Owner() {
		if err := r.kv.SRem(ctx, ownerIndexKey(prev.Owner()), mediaID); err != nil {
			return false, err
		}
	}
	return prev == nil, nil
}

// List returns the rules visible to owner, or every rule when owner is empty.
// Index members whose rule has disappeared are skipped.
func (r *AutomationRepo) List(ctx context.Context, owner string) (map[string]domain.AutomationRule, error) {
	index := reelIndexKey
	if owner != "" {
		index = ownerIndexKey(owner)
	}
	ids, err := r.kv.SMembers(ctx, index)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.AutomationRule, len(ids))
	for _, id := range ids {
		rule, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if rule == nil {
			continue
		}
		out[id] = *rule
	}
	return out, nil
}

// Delete removes the rule for mediaID along with its index memberships.
// owner is removed from as well, in addition to the stored rule's owner.
// It reports whether a rule existed.
func (r *AutomationRepo) Delete(ctx context.Context, mediaID, owner string) (bool, error) {
	prev, err := r.Get(ctx, mediaID)
	if err != nil {
		return false, err
	}
	if _, err := r.kv.Del(ctx, reelRuleKey(mediaID)); err != nil {
		return false, err
	}
	if err := r.kv.SRem(ctx, reelIndexKey, mediaID); err != nil {
		return false, err
	}
	owners := map[string]struct{}{}
	if owner != "" {
		owners[owner] = struct{}{}
	}
	if prev != nil && prev.Owner() != "" {
		owners[prev.Owner()] = struct{}{}
	}
	for o := range owners {
		if err := r.kv.SRem(ctx, ownerIndexKey(o), mediaID); err != nil {
			return false, err
		}
	}
	return prev != nil, nil
}
