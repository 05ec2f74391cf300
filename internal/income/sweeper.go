package income

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically finds income streams due for payout and re-runs the
// earn create path per stream. It is an injected component with an explicit
// lifecycle, not a package-level singleton: construct, Start, Stop.
//
// Per-stream failures are logged and skipped so one failing stream never
// blocks the others.
type Sweeper struct {
	Service  *Service
	Schedule string // cron spec, e.g. "@every 1h"

	cron *cron.Cron
}

// Start registers the sweep on its schedule and launches the cron runner.
func (s *Sweeper) Start() error {
	if s.Schedule == "" {
		s.Schedule = "@every 1h"
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Schedule, func() {
		s.RunOnce(context.Background(), time.Now().UTC())
	}); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("schedule", s.Schedule).Msg("Income sweeper started")
	return nil
}

// Stop halts the cron runner and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		log.Info().Msg("Income sweeper stopped")
	}
}

// RunOnce processes every due stream. Exported so tests and an ops endpoint
// can trigger a sweep directly.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) {
	due, err := s.Service.DueStreams(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Income sweep: listing due streams failed")
		return
	}

	for _, stream := range due {
		_, err := s.Service.RequestPayout(ctx, stream.OrgID, stream.StreamID, nil)
		if err != nil {
			log.Error().Err(err).
				Str("stream_id", stream.StreamID.String()).
				Str("org_id", stream.OrgID.String()).
				Msg("Income sweep: payout failed, skipping stream")
		}
		// Advance regardless of outcome; a failed payout is recorded on the
		// request and must not be retried every sweep.
		if err := s.Service.MarkPaid(ctx, stream.StreamID, now); err != nil {
			log.Error().Err(err).
				Str("stream_id", stream.StreamID.String()).
				Msg("Income sweep: advancing next payout failed")
		}
	}

	if len(due) > 0 {
		log.Info().Int("streams", len(due)).Msg("Income sweep completed")
	}
}
