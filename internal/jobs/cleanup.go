// Package jobs runs background work on a cron schedule. The only job today is
// the daily analytics cleanup.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-ig-automation/internal/services"
)

// ErrInvalidCron is returned by NewCleanup for an unparsable expression.
var ErrInvalidCron = errors.New("jobs: invalid cron expression")

// Cleaner performs one cleanup sweep.
type Cleaner interface {
	Cleanup(ctx context.Context, now time.Time) (services.CleanupResult, error)
}

// Cleanup runs Cleaner on every tick of a cron expression (UTC).
type Cleanup struct {
	cron    string
	cleaner Cleaner
	log     zerolog.Logger

	// now and wait are swapped in tests.
	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// NewCleanup validates expr and returns a scheduler for c.
func NewCleanup(expr string, c Cleaner, log zerolog.Logger) (*Cleanup, error) {
	if !gronx.IsValid(expr) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCron, expr)
	}
	return &Cleanup{
		cron:    expr,
		cleaner: c,
		log:     log.With().Str("job", "cleanup").Str("cron", expr).Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		wait:    services.SleepContext,
	}, nil
}

// Run blocks until ctx is cancelled, running the sweep at each tick. Sweep
// failures are logged and never stop the loop.
func (j *Cleanup) Run(ctx context.Context) error {
	j.log.Info().Msg("cleanup scheduler started")
	defer j.log.Info().Msg("cleanup scheduler stopped")

	for {
		now := j.now()
		next, err := gronx.NextTickAfter(j.cron, now, false)
		if err != nil {
			j.log.Error().Err(err).Msg("compute next tick")
			next = now.Add(time.Minute)
		}
		if err := j.wait(ctx, next.Sub(now)); err != nil {
			return ctx.Err()
		}
		j.runOnce(ctx, next)
	}
}

func (j *Cleanup) runOnce(ctx context.Context, tick time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			j.log.Error().Interface("panic", rec).Msg("cleanup panicked")
		}
	}()
	start := time.Now()
	res, err := j.cleaner.Cleanup(j.log.WithContext(ctx), tick)
	if err != nil {
		j.log.Error().Err(err).Int64("keys_deleted", res.KeysDeleted).Msg("cleanup run failed")
		return
	}
	j.log.Info().
		Int("days", len(res.Days)).
		Int64("keys_deleted", res.KeysDeleted).
		Dur("took", time.Since(start)).
		Msg("cleanup run finished")
}
