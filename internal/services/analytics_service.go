// Package services – AnalyticsService
//
// AnalyticsService serves the dashboard's read side: counter summaries for a
// period, the sent-DM history of an account, paginated outbound action logs
// from SQL, and reply record lookups.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/repo"
	"github.com/tbourn/go-ig-automation/internal/utils"
)

// Analytics periods accepted by Summary.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodAll   = "all"
)

// DM history bounds.
const (
	DefaultDMHistoryLimit = 50
	MaxDMHistoryLimit     = 100
)

// AnalyticsReader is the read contract over stored analytics.
type AnalyticsReader interface {
	GlobalStats(ctx context.Context) (domain.Stats, error)
	DailyStats(ctx context.Context, day string) (domain.Stats, error)
	EventStats(ctx context.Context, day string) (domain.Stats, error)
	DMHistory(ctx context.Context, accountID string, limit int) ([]domain.DMRecord, error)
	RecentEvents(ctx context.Context, typ string, limit int) ([]domain.Event, error)
}

// ReplyRecords reads reply records.
type ReplyRecords interface {
	ReplyRecord(ctx context.Context, commentID string) (*domain.ReplyRecord, error)
}

// AnalyticsService answers dashboard analytics queries.
type AnalyticsService struct {
	Analytics AnalyticsReader
	Records   ReplyRecords
	DB        *gorm.DB
	Logs      ActionLogRepo
	Now       func() time.Time
}

// Summary returns the counters for period: today (daily counters and event
// counts), week (daily counters of the last seven UTC days) or all
// (lifetime counters).
func (s *AnalyticsService) Summary(ctx context.Context, period string) (*domain.AnalyticsSummary, error) {
	now := s.now()
	today := repo.DayKey(now)

	switch period {
	case "", PeriodToday:
		daily, err := s.Analytics.DailyStats(ctx, today)
		if err != nil {
			return nil, err
		}
		events, err := s.Analytics.EventStats(ctx, today)
		if err != nil {
			return nil, err
		}
		return &domain.AnalyticsSummary{Period: PeriodToday, Date: today, Stats: daily, Events: events}, nil

	case PeriodWeek:
		out := &domain.AnalyticsSummary{Period: PeriodWeek, Days: make(map[string]domain.Stats, 7), Stats: domain.Stats{}}
		for i := 0; i < 7; i++ {
			day := repo.DayKey(now.AddDate(0, 0, -i))
			st, err := s.Analytics.DailyStats(ctx, day)
			if err != nil {
				return nil, err
			}
			out.Days[day] = st
			for k, v := range st {
				out.Stats[k] += v
			}
		}
		return out, nil

	case PeriodAll:
		st, err := s.Analytics.GlobalStats(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.AnalyticsSummary{Period: PeriodAll, Stats: st}, nil
	}
	return nil, ErrInvalidPeriod
}

// DMHistory returns the latest DMs sent by accountID. limit is clamped to
// [1, MaxDMHistoryLimit]; zero selects the default.
func (s *AnalyticsService) DMHistory(ctx context.Context, accountID string, limit int) ([]domain.DMRecord, error) {
	accountID, ok := cleanID(accountID)
	if !ok {
		return nil, ErrInvalidID
	}
	limit = utils.LimitOrDefault(limit, DefaultDMHistoryLimit, MaxDMHistoryLimit)
	return s.Analytics.DMHistory(ctx, accountID, limit)
}

// RecentEvents returns the latest events of type typ, newest first. limit
// is clamped like DMHistory.
func (s *AnalyticsService) RecentEvents(ctx context.Context, typ string, limit int) ([]domain.Event, error) {
	typ, ok := cleanID(typ)
	if !ok {
		return nil, ErrInvalidID
	}
	limit = utils.LimitOrDefault(limit, DefaultDMHistoryLimit, MaxDMHistoryLimit)
	return s.Analytics.RecentEvents(ctx, typ, limit)
}

// Actions returns a page of the account's outbound action log, newest first,
// and the total row count.
func (s *AnalyticsService) Actions(ctx context.Context, accountID string, page, pageSize int) ([]domain.ActionLog, int64, error) {
	accountID, ok := cleanID(accountID)
	if !ok {
		return nil, 0, ErrInvalidID
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Logs.CountActionLogs(ctx, s.DB, accountID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ActionLog{}, 0, nil
	}
	items, err := s.Logs.ListActionLogsPage(ctx, s.DB, accountID, offset, pageSize)
	return items, total, err
}

// ReplyRecord returns how commentID was handled or ErrRecordNotFound.
func (s *AnalyticsService) ReplyRecord(ctx context.Context, commentID string) (*domain.ReplyRecord, error) {
	commentID, ok := cleanID(commentID)
	if !ok {
		return nil, ErrInvalidID
	}
	rec, err := s.Records.ReplyRecord(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

func (s *AnalyticsService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
