// Package gate is the dedup and rate gate consulted by the webhook
// dispatcher before any outbound call. All state lives in the key-value
// store, so the gate holds no in-process locks: first-delivery detection is
// a single SET NX and counters are atomic INCR with a TTL set when a window
// opens.
//
// Rate limiting is fixed-window. A burst straddling a window boundary can
// consume up to twice the nominal limit within one window length.
package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/kv"
)

// Key prefixes used by the gate.
const (
	deliveryKeyPrefix = "webhook:processed:"
	replyKeyPrefix    = "comment:replied:"
	rateKeyPrefix     = "ratelimit:"
	quotaKeyPrefix    = "quota:"
)

// ErrInvalidLimit is returned when a limit below 1 or a non-positive window is passed.
var ErrInvalidLimit = errors.New("gate: limit must be >= 1 and window > 0")

// Decision is the outcome of a rolling fixed-window check.
type Decision struct {
	Allowed   bool
	Current   int64
	Remaining int64
	ResetIn   time.Duration
}

// DailyDecision is the outcome of a calendar-day quota check.
type DailyDecision struct {
	Allowed   bool
	Used      int64
	Remaining int64
	Limit     int64
}

// Gate wraps a kv.Store with dedup and rate-limit operations.
type Gate struct {
	kv        kv.Store
	recordTTL time.Duration
	now       func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithRecordTTL sets how long reply records are kept (default 30 days).
func WithRecordTTL(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.recordTTL = d
		}
	}
}

// WithClock overrides the clock used for daily quota keys and timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// New returns a Gate over s.
func New(s kv.Store, opts ...Option) *Gate {
	g := &Gate{
		kv:        s,
		recordTTL: 30 * 24 * time.Hour,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// CommentDeliveryKey returns the dedup marker key for a comment event.
func CommentDeliveryKey(commentID string) string {
	return "webhook_comment_" + commentID
}

// MarkIfFirstDelivery records key and reports whether this call was the
// first to do so within ttl.
func (g *Gate) MarkIfFirstDelivery(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.kv.SetNX(ctx, deliveryKeyPrefix+key, "1", ttl)
}

// ReleaseDelivery drops a marker so the next redelivery of key is processed.
func (g *Gate) ReleaseDelivery(ctx context.Context, key string) error {
	_, err := g.kv.Del(ctx, deliveryKeyPrefix+key)
	return err
}

// ReplyRecord returns the stored record for commentID, or (nil, nil).
func (g *Gate) ReplyRecord(ctx context.Context, commentID string) (*domain.ReplyRecord, error) {
	raw, err := g.kv.Get(ctx, replyKeyPrefix+commentID)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec domain.ReplyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode reply record %s: %w", commentID, err)
	}
	return &rec, nil
}

// HasBeenHandled reports whether commentID has a record that blocks
// further processing (any status except skipped).
func (g *Gate) HasBeenHandled(ctx context.Context, commentID string) (bool, error) {
	rec, err := g.ReplyRecord(ctx, commentID)
	if err != nil {
		return false, err
	}
	return rec.Handled(), nil
}

// MarkHandled writes rec for commentID, overwriting any previous record and
// refreshing its TTL. A zero Timestamp is stamped with the current time.
func (g *Gate) MarkHandled(ctx context.Context, commentID string, rec domain.ReplyRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = g.now()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, replyKeyPrefix+commentID, string(b), g.recordTTL)
}

// TryConsume counts one action against scope in a fixed window and reports
// whether it fits within limit. Denied attempts still count.
func (g *Gate) TryConsume(ctx context.Context, scope string, limit int, window time.Duration) (Decision, error) {
	if limit < 1 || window <= 0 {
		return Decision{}, ErrInvalidLimit
	}
	n, ttl, err := g.kv.IncrWithTTL(ctx, rateKeyPrefix+scope, window)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{
		Allowed: n <= int64(limit),
		Current: n,
		ResetIn: ttl,
	}
	if d.Allowed {
		d.Remaining = int64(limit) - n
	}
	return d, nil
}

// TryConsumeDaily counts one action against scope for the current UTC day.
// The counter key carries the date so a new day starts from zero; the TTL
// only bounds storage.
func (g *Gate) TryConsumeDaily(ctx context.Context, scope string, limit int) (DailyDecision, error) {
	if limit < 1 {
		return DailyDecision{}, ErrInvalidLimit
	}
	key := fmt.Sprintf("%s%s:%s", quotaKeyPrefix, scope, g.now().UTC().Format("2006-01-02"))
	n, _, err := g.kv.IncrWithTTL(ctx, key, 24*time.Hour)
	if err != nil {
		return DailyDecision{}, err
	}
	d := DailyDecision{
		Allowed: n <= int64(limit),
		Used:    n,
		Limit:   int64(limit),
	}
	if d.Allowed {
		d.Remaining = int64(limit) - n
	}
	return d, nil
}
