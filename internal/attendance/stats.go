package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/cache"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/metrics"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/timefmt"
)

// recentWindowDays is the span counted by AttendanceStats.Last30Days,
// today included.
const recentWindowDays = 30

// Stats returns the stat-card values for a participant, from the cache when
// possible.
func (s *Service) Stats(ctx context.Context, participantID int) (model.AttendanceStats, error) {
	if _, err := s.store.GetParticipant(participantID); err != nil {
		return model.AttendanceStats{}, fmt.Errorf("participant %d: %w", participantID, err)
	}

	cached, err := s.cache.Get(ctx, participantID)
	if err == nil {
		metrics.IncStatsCache(true)
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Int("participant_id", participantID).Msg("stats cache unavailable, computing")
	}
	metrics.IncStatsCache(false)

	version := s.versions.current(participantID)
	stats, err := s.computeStats(participantID)
	if err != nil {
		return model.AttendanceStats{}, err
	}
	if err := s.cacheStats(ctx, stats, version); err != nil {
		log.Warn().Err(err).Int("participant_id", participantID).Msg("failed to cache stats")
	}
	return stats, nil
}

// RefreshStats recomputes and caches stats for every participant and
// returns how many were refreshed.
func (s *Service) RefreshStats(ctx context.Context) (int, error) {
	started := time.Now()
	n, err := s.refreshStats(ctx)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveStatsRefresh(result, time.Since(started))
	return n, err
}

func (s *Service) refreshStats(ctx context.Context) (int, error) {
	participants, err := s.store.ListParticipants("")
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, p := range participants {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		version := s.versions.current(p.ID)
		stats, err := s.computeStats(p.ID)
		if err != nil {
			return refreshed, fmt.Errorf("stats for participant %d: %w", p.ID, err)
		}
		if err := s.cacheStats(ctx, stats, version); err != nil {
			return refreshed, err
		}
		refreshed++
	}
	return refreshed, nil
}

// cacheStats stores stats computed at version. Stats that an attendance
// change overtook are not cached, or are evicted again if the change landed
// while they were being written.
func (s *Service) cacheStats(ctx context.Context, stats model.AttendanceStats, version uint64) error {
	id := stats.ParticipantID
	if s.versions.current(id) != version {
		return nil
	}
	if err := s.cache.Set(ctx, stats); err != nil {
		return err
	}
	if s.versions.current(id) != version {
		return s.cache.Invalidate(ctx, id)
	}
	return nil
}

// statsVersions counts attendance changes per participant within this
// process. Other instances sharing the cache rely on Invalidate and the TTL.
type statsVersions struct {
	mu sync.Mutex
	m  map[int]uint64
}

func newStatsVersions() *statsVersions {
	return &statsVersions{m: map[int]uint64{}}
}

func (v *statsVersions) current(participantID int) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.m[participantID]
}

func (v *statsVersions) bump(participantID int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.m[participantID]++
}

func (s *Service) computeStats(participantID int) (model.AttendanceStats, error) {
	records, err := s.store.ListAttendanceByParticipant(participantID, 0)
	if err != nil {
		return model.AttendanceStats{}, err
	}
	return summarize(participantID, records, s.now().In(s.loc)), nil
}

// summarize builds stats from records sorted newest first.
func summarize(participantID int, records []model.AttendanceRecord, now time.Time) model.AttendanceStats {
	stats := model.AttendanceStats{
		ParticipantID: participantID,
		TotalSessions: len(records),
		LastCheckIn:   timefmt.Placeholder,
		ComputedAt:    now,
	}
	if len(records) == 0 {
		return stats
	}

	today := db.DateOnly(now)
	windowStart := today.AddDate(0, 0, -(recentWindowDays - 1))

	programs := map[int]struct{}{}
	weeks := map[int]struct{}{}
	first, last := records[0].SessionDate, records[0].SessionDate

	for _, rec := range records {
		programs[rec.ProgramID] = struct{}{}
		weeks[weekKey(rec.SessionDate)] = struct{}{}

		if !rec.SessionDate.Before(windowStart) && !rec.SessionDate.After(today) {
			stats.Last30Days++
		}
		if rec.SessionDate.Before(first) {
			first = rec.SessionDate
		}
		if rec.SessionDate.After(last) {
			last = rec.SessionDate
		}
	}

	stats.DistinctPrograms = len(programs)
	stats.FirstSession = &first
	stats.LastSession = &last
	stats.LastCheckIn = timefmt.Format12h(records[0].CheckIn)
	stats.WeeklyStreak = weeklyStreak(weeks, today)
	return stats
}

// weeklyStreak counts consecutive ISO weeks with attendance, ending at the
// current week, or at last week while the current one has none yet.
func weeklyStreak(weeks map[int]struct{}, today time.Time) int {
	cursor := today
	if _, ok := weeks[weekKey(cursor)]; !ok {
		cursor = cursor.AddDate(0, 0, -7)
	}
	streak := 0
	for {
		if _, ok := weeks[weekKey(cursor)]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
}

func weekKey(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}
