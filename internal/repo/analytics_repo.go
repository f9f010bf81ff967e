// Package repo implements the data persistence layer for domain entities.
// This file provides the Redis-backed analytics store: the event stream,
// global and daily counters, replied-comment sets, and per-account DM history.
//
// Key layout (dates are UTC yyyy-mm-dd):
//
//	event:{type}:{unixnano}              JSON Event, 30d TTL
//	events:{type}                        list of event JSON, newest first
//	stats:events:{date}                  hash type -> count
//	stats:global                         hash of lifetime counters
//	stats:daily:{date}                   hash of per-day counters
//	analytics:comments:{date}            set of replied comment ids, 30d TTL
//	dm:{unixnano}:{accountId}:{recipId}  JSON DMRecord, 7d TTL
//	user:{accountId}:dms:sent            list of DMRecord JSON, newest first
//	user:{accountId}:dm:recipients       set of recipient ids
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/kv"
)

// Retention and list bounds for analytics keys.
const (
	EventTTL         = 30 * 24 * time.Hour
	CommentSetTTL    = 30 * 24 * time.Hour
	DMRecordTTL      = 7 * 24 * time.Hour
	MaxEventsPerType = 10000
	MaxDMHistory     = 1000
)

// Counter fields in the stats hashes.
const (
	StatTotalCommentsReplied = "total_comments_replied"
	StatTotalDMsSent         = "total_dms_sent"
	StatCommentsReplied      = "comments_replied"
	StatDMsSent              = "dms_sent"
)

const globalStatsKey = "stats:global"

// DayKey formats t as the UTC date used in daily keys.
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func dailyStatsKey(day string) string { return "stats:daily:" + day }
func eventStatsKey(day string) string { return "stats:events:" + day }
func commentSetKey(day string) string { return "analytics:comments:" + day }
func dmHistoryKey(account string) string { return "user:" + account + ":dms:sent" }

// AnalyticsRepo writes and reads analytics data in the key-value store.
type AnalyticsRepo struct {
	kv kv.Store
}

// NewAnalyticsRepo returns a repository over s.
func NewAnalyticsRepo(s kv.Store) *AnalyticsRepo { return &AnalyticsRepo{kv: s} }

// TrackEvent stores ev, appends it to its type's stream, and bumps the
// per-day event counter.
func (r *AnalyticsRepo) TrackEvent(ctx context.Context, ev domain.Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("event:%s:%d", ev.Type, ev.Timestamp.UnixNano())
	if err := r.kv.Set(ctx, key, string(b), EventTTL); err != nil {
		return err
	}
	if err := r.kv.LPushTrim(ctx, "events:"+ev.Type, string(b), MaxEventsPerType); err != nil {
		return err
	}
	return r.kv.HIncrBy(ctx, eventStatsKey(DayKey(ev.Timestamp)), ev.Type, 1)
}

// RecentEvents returns up to limit events of type typ, newest first.
func (r *AnalyticsRepo) RecentEvents(ctx context.Context, typ string, limit int) ([]domain.Event, error) {
	raw, err := r.kv.LRange(ctx, "events:"+typ, 0, int64(limit)-1)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(raw))
	for _, s := range raw {
		var ev domain.Event
		if json.Unmarshal([]byte(s), &ev) == nil {
			out = append(out, ev)
		}
	}
	return out, nil
}

// TrackCommentReplied records a completed public reply.
func (r *AnalyticsRepo) TrackCommentReplied(ctx context.Context, commentID string, at time.Time) error {
	day := DayKey(at)
	if err := r.kv.SAdd(ctx, commentSetKey(day), commentID); err != nil {
		return err
	}
	if err := r.kv.Expire(ctx, commentSetKey(day), CommentSetTTL); err != nil {
		return err
	}
	if err := r.kv.HIncrBy(ctx, globalStatsKey, StatTotalCommentsReplied, 1); err != nil {
		return err
	}
	return r.kv.HIncrBy(ctx, dailyStatsKey(day), StatCommentsReplied, 1)
}

// TrackDMSent records a sent DM in the account history and counters.
func (r *AnalyticsRepo) TrackDMSent(ctx context.Context, rec domain.DMRecord) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("dm:%d:%s:%s", rec.SentAt.UnixNano(), rec.AccountID, rec.RecipientID)
	if err := r.kv.Set(ctx, key, string(b), DMRecordTTL); err != nil {
		return err
	}
	if err := r.kv.LPushTrim(ctx, dmHistoryKey(rec.AccountID), string(b), MaxDMHistory); err != nil {
		return err
	}
	if err := r.kv.HIncrBy(ctx, globalStatsKey, StatTotalDMsSent, 1); err != nil {
		return err
	}
	if err := r.kv.HIncrBy(ctx, dailyStatsKey(DayKey(rec.SentAt)), StatDMsSent, 1); err != nil {
		return err
	}
	return r.kv.SAdd(ctx, "user:"+rec.AccountID+":dm:recipients", rec.RecipientID)
}

// DMHistory returns up to limit DMs sent by accountID, newest first.
// Entries that fail to decode are skipped.
func (r *AnalyticsRepo) DMHistory(ctx context.Context, accountID string, limit int) ([]domain.DMRecord, error) {
	raw, err := r.kv.LRange(ctx, dmHistoryKey(accountID), 0, int64(limit)-1)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DMRecord, 0, len(raw))
	for _, s := range raw {
		var rec domain.DMRecord
		if json.Unmarshal([]byte(s), &rec) == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GlobalStats returns the lifetime counters.
func (r *AnalyticsRepo) GlobalStats(ctx context.Context) (domain.Stats, error) {
	return r.stats(ctx, globalStatsKey)
}

// DailyStats returns the counters for day (yyyy-mm-dd).
func (r *AnalyticsRepo) DailyStats(ctx context.Context, day string) (domain.Stats, error) {
	return r.stats(ctx, dailyStatsKey(day))
}

// EventStats returns the per-type event counts for day.
func (r *AnalyticsRepo) EventStats(ctx context.Context, day string) (domain.Stats, error) {
	return r.stats(ctx, eventStatsKey(day))
}

// DeleteDay removes every daily key for day and returns how many existed.
func (r *AnalyticsRepo) DeleteDay(ctx context.Context, day string) (int64, error) {
	return r.kv.Del(ctx, dailyStatsKey(day), commentSetKey(day), eventStatsKey(day))
}

func (r *AnalyticsRepo) stats(ctx context.Context, key string) (domain.Stats, error) {
	m, err := r.kv.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make(domain.Stats, len(m))
	for k, v := range m {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
