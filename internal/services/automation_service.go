// Package services – AutomationService
//
// AutomationService backs the dashboard's rule management. Rules are
// validated and defaulted before they are stored, so the webhook path only
// ever reads normalized rules. Creating a rule consumes one unit of the
// owner's daily automation quota; updates to an existing rule are free.
package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/gate"
)

// AutomationStore is the per-media rule repository used by AutomationService.
type AutomationStore interface {
	Get(ctx context.Context, mediaID string) (*domain.AutomationRule, error)
	Save(ctx context.Context, mediaID string, r *domain.AutomationRule) (bool, error)
	List(ctx context.Context, owner string) (map[string]domain.AutomationRule, error)
	Delete(ctx context.Context, mediaID, owner string) (bool, error)
}

// DMAutomationStore is the per-account DM rule repository.
type DMAutomationStore interface {
	Get(ctx context.Context, accountID string) (*domain.DMAutomationRule, error)
	Save(ctx context.Context, accountID string, r *domain.DMAutomationRule) error
	Delete(ctx context.Context, accountID string) (bool, error)
	ListAccounts(ctx context.Context) ([]string, error)
}

// QuotaGate consumes daily quota units.
type QuotaGate interface {
	TryConsumeDaily(ctx context.Context, scope string, limit int) (gate.DailyDecision, error)
}

// EventRecorder stores analytics events.
type EventRecorder interface {
	TrackEvent(ctx context.Context, ev domain.Event) error
}

// AutomationService manages comment and DM automation rules.
type AutomationService struct {
	Rules     AutomationStore
	DMRules   DMAutomationStore
	Quota     QuotaGate
	Analytics EventRecorder

	// DailyQuota caps rule creations per user and UTC day.
	DailyQuota int
}

// NewAutomationService wires an AutomationService with the default quota.
func NewAutomationService(rules AutomationStore, dm DMAutomationStore, q QuotaGate, ev EventRecorder) *AutomationService {
	return &AutomationService{Rules: rules, DMRules: dm, Quota: q, Analytics: ev, DailyQuota: 100}
}

// List returns the rules owned by userID keyed by media id.
func (s *AutomationService) List(ctx context.Context, userID string) (map[string]domain.AutomationRule, error) {
	return s.Rules.List(ctx, strings.TrimSpace(userID))
}

// Get returns the rule for mediaID or ErrAutomationNotFound.
func (s *AutomationService) Get(ctx context.Context, mediaID string) (*domain.AutomationRule, error) {
	mediaID, ok := cleanID(mediaID)
	if !ok {
		return nil, ErrInvalidID
	}
	r, err := s.Rules.Get(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrAutomationNotFound
	}
	return r, nil
}

// Put validates and stores the rule for mediaID on behalf of userID. It
// reports whether the rule was newly created.
func (s *AutomationService) Put(ctx context.Context, userID, mediaID string, r *domain.AutomationRule) (bool, error) {
	ctx, span := otel.Tracer("services/AutomationService").Start(ctx, "Put",
		trace.WithAttributes(attribute.String("media.id", mediaID)),
	)
	defer span.End()

	mediaID, ok := cleanID(mediaID)
	if !ok {
		return false, ErrInvalidID
	}
	userID = strings.TrimSpace(userID)
	if r.Owner() == "" && userID != "" {
		r.OwnerUserID = &userID
	}
	if err := r.Normalize(); err != nil {
		return false, err
	}

	existing, err := s.Rules.Get(ctx, mediaID)
	if err != nil {
		return false, err
	}
	if existing != nil && !ownedBy(existing, userID) {
		return false, ErrNotOwner
	}
	if existing == nil && s.DailyQuota > 0 {
		scope := "automations:" + userID
		if userID == "" {
			scope = "automations:anonymous"
		}
		d, err := s.Quota.TryConsumeDaily(ctx, scope, s.DailyQuota)
		if err != nil {
			return false, err
		}
		if !d.Allowed {
			zerolog.Ctx(ctx).Warn().Str("user_id", userID).Int64("limit", d.Limit).Msg("automation quota exceeded")
			return false, ErrQuotaExceeded
		}
	}

	created, err := s.Rules.Save(ctx, mediaID, r)
	if err != nil {
		return false, err
	}
	if created {
		s.track(ctx, domain.EventAutomationCreated, map[string]string{"mediaId": mediaID, "userId": userID})
	}
	return created, nil
}

// Delete removes the rule for mediaID.
func (s *AutomationService) Delete(ctx context.Context, userID, mediaID string) error {
	mediaID, ok := cleanID(mediaID)
	if !ok {
		return ErrInvalidID
	}
	userID = strings.TrimSpace(userID)
	existing, err := s.Rules.Get(ctx, mediaID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrAutomationNotFound
	}
	if !ownedBy(existing, userID) {
		return ErrNotOwner
	}
	existed, err := s.Rules.Delete(ctx, mediaID, existing.Owner())
	if err != nil {
		return err
	}
	if !existed {
		return ErrAutomationNotFound
	}
	s.track(ctx, domain.EventAutomationDeleted, map[string]string{"mediaId": mediaID, "userId": userID})
	return nil
}

// GetDM returns the DM rule for accountID or ErrAutomationNotFound.
func (s *AutomationService) GetDM(ctx context.Context, accountID string) (*domain.DMAutomationRule, error) {
	accountID, ok := cleanID(accountID)
	if !ok {
		return nil, ErrInvalidID
	}
	r, err := s.DMRules.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrAutomationNotFound
	}
	return r, nil
}

// PutDM validates and stores the DM rule for accountID.
func (s *AutomationService) PutDM(ctx context.Context, accountID string, r *domain.DMAutomationRule) error {
	accountID, ok := cleanID(accountID)
	if !ok {
		return ErrInvalidID
	}
	if err := r.Normalize(); err != nil {
		return err
	}
	if err := s.DMRules.Save(ctx, accountID, r); err != nil {
		return err
	}
	s.track(ctx, domain.EventDMAutomationUpdated, map[string]string{
		"accountId": accountID,
		"keywords":  strconv.Itoa(len(r.KeywordResponses)),
	})
	return nil
}

// ListDM returns the sorted ids of accounts with a DM rule.
func (s *AutomationService) ListDM(ctx context.Context) ([]string, error) {
	ids, err := s.DMRules.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// DeleteDM removes the DM rule for accountID.
func (s *AutomationService) DeleteDM(ctx context.Context, accountID string) error {
	accountID, ok := cleanID(accountID)
	if !ok {
		return ErrInvalidID
	}
	existed, err := s.DMRules.Delete(ctx, accountID)
	if err != nil {
		return err
	}
	if !existed {
		return ErrAutomationNotFound
	}
	return nil
}

func (s *AutomationService) track(ctx context.Context, typ string, meta map[string]string) {
	if s.Analytics == nil {
		return
	}
	ev := domain.Event{Type: typ, Metadata: meta, Timestamp: time.Now().UTC()}
	if err := s.Analytics.TrackEvent(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", typ).Msg("track event")
	}
}

// maxIDLen bounds provider ids used in store keys.
// ownedBy reports whether userID may change r. Unowned rules are open to
// everyone.
func ownedBy(r *domain.AutomationRule, userID string) bool {
	owner := r.Owner()
	return owner == "" || owner == userID
}

const maxIDLen = 128

// cleanID trims id and accepts only ASCII letters, digits, '_' and '-'.
// Keys are built by concatenation, so ':' and whitespace are rejected.
func cleanID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxIDLen {
		return "", false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '-':
		default:
			return "", false
		}
	}
	return id, true
}
