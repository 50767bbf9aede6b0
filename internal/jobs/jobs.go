// Package jobs runs periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// refreshTimeout bounds one stats warm-up run.
const refreshTimeout = 5 * time.Minute

// StatsRefresher recomputes cached participant stats.
type StatsRefresher interface {
	RefreshStats(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron  *cron.Cron
	stats StatsRefresher
}

func NewScheduler(loc *time.Location, stats StatsRefresher) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		stats: stats,
	}
}

// ScheduleStatsRefresh registers the stats warmer. An empty spec leaves it
// disabled.
func (s *Scheduler) ScheduleStatsRefresh(spec string) error {
	if spec == "" {
		log.Info().Msg("stats refresh job disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RefreshStats(context.Background()) }); err != nil {
		return fmt.Errorf("schedule stats refresh %q: %w", spec, err)
	}
	log.Info().Str("schedule", spec).Msg("stats refresh job scheduled")
	return nil
}

// RefreshStats runs one warm-up pass and logs the outcome.
func (s *Scheduler) RefreshStats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	started := time.Now()
	n, err := s.stats.RefreshStats(ctx)
	if err != nil {
		log.Error().Err(err).Int("refreshed", n).Msg("stats refresh failed")
		return
	}
	log.Info().Int("refreshed", n).Dur("took", time.Since(started)).Msg("stats refreshed")
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs or ctx, whichever ends
// first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("timed out waiting for background jobs")
	}
}
