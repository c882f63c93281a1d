package services

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/mdhaarishussain/Yuvshiksha/internal/metrics"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
)

const DefaultRetentionCron = "0 3 * * *"

// Purger removes soft-deleted messages older than a cutoff.
type Purger interface {
	PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper hard-deletes messages that were soft-deleted more than
// Period ago, on the Cron schedule.
type RetentionSweeper struct {
	purger Purger
	cron   string
	period time.Duration
	now    func() time.Time
}

func NewRetentionSweeper(p Purger, cronExpr string, period time.Duration) (*RetentionSweeper, error) {
	if cronExpr == "" {
		cronExpr = DefaultRetentionCron
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid retention cron expression: %s", cronExpr)
	}
	if period <= 0 {
		return nil, fmt.Errorf("retention period must be positive, got %s", period)
	}
	return &RetentionSweeper{purger: p, cron: cronExpr, period: period, now: time.Now}, nil
}

// RunOnce purges everything deleted before now minus the period.
func (r *RetentionSweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.period)
	n, err := r.purger.PurgeDeleted(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.RetentionPurged.Add(float64(n))
	logger.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("Retention run complete")
	return n, nil
}

// NextRun is the first scheduled tick strictly after t.
func (r *RetentionSweeper) NextRun(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(r.cron, t.UTC(), false)
}

// Start runs the sweeper on its schedule until ctx is cancelled.
func (r *RetentionSweeper) Start(ctx context.Context) {
	logger.Info().Str("cron", r.cron).Dur("period", r.period).Msg("Retention scheduler started")
	go r.loop(ctx)
}

func (r *RetentionSweeper) loop(ctx context.Context) {
	for {
		next, err := r.NextRun(r.now())
		if err != nil {
			logger.Error().Err(err).Str("cron", r.cron).Msg("Failed to compute next retention run")
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-time.After(time.Until(next)):
			if _, err := r.RunOnce(ctx); err != nil {
				logger.Error().Err(err).Msg("Retention run failed")
			}
		case <-ctx.Done():
			logger.Info().Msg("Retention scheduler stopping")
			return
		}
	}
}
