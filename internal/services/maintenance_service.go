// Package services – MaintenanceService
//
// MaintenanceService removes expired per-day analytics keys. Most keys carry
// their own TTL; the sweep covers keys written before a TTL was set and
// counters whose TTL was lost.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-ig-automation/internal/repo"
)

// Retention window for daily analytics keys, in days.
const (
	RetentionDays = 30
	SweepDays     = 30
)

// DayDeleter removes every daily analytics key for one day.
type DayDeleter interface {
	DeleteDay(ctx context.Context, day string) (int64, error)
}

// MaintenanceService runs periodic cleanup.
type MaintenanceService struct {
	Analytics DayDeleter
}

// CleanupResult summarizes one sweep.
type CleanupResult struct {
	Days        []string `json:"days"`
	KeysDeleted int64    `json:"keysDeleted"`
}

// Cleanup deletes the daily keys of the days 31 to 59 days before now. It
// keeps going past per-day errors and returns the first one.
func (s *MaintenanceService) Cleanup(ctx context.Context, now time.Time) (CleanupResult, error) {
	ctx, span := otel.Tracer("services/MaintenanceService").Start(ctx, "Cleanup")
	defer span.End()

	var (
		res      CleanupResult
		firstErr error
	)
	for i := RetentionDays + 1; i < RetentionDays+SweepDays; i++ {
		day := repo.DayKey(now.AddDate(0, 0, -i))
		n, err := s.Analytics.DeleteDay(ctx, day)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("day", day).Msg("cleanup day failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		res.Days = append(res.Days, day)
		res.KeysDeleted += n
	}
	span.SetAttributes(attribute.Int64("cleanup.keys_deleted", res.KeysDeleted))
	zerolog.Ctx(ctx).Info().Int64("keys_deleted", res.KeysDeleted).Msg("analytics cleanup finished")
	return res, firstErr
}
