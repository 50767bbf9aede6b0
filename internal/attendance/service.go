// Package attendance records check-ins and prepares attendance history and
// stat-card values for display.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/cache"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/metrics"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/notify"
	"github.com/Nixie-Tech-LLC/attendance/internal/timefmt"
)

var (
	ErrAlreadyCheckedIn      = errors.New("participant already checked in for this session")
	ErrNotCheckedIn          = errors.New("participant has no open check-in for this session")
	ErrCheckOutBeforeCheckIn = errors.New("check-out time is before check-in time")
)

// storedTimeLayout is how check-in/out times are written to the store.
const storedTimeLayout = "15:04:05"

type Service struct {
	store    db.Store
	cache    cache.StatsCache
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
	versions *statsVersions
}

type Option func(*Service)

// WithClock overrides the time source used for "now" and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store db.Store, statsCache cache.StatsCache, notifier notify.Notifier, loc *time.Location, opts ...Option) *Service {
	if statsCache == nil {
		statsCache = cache.NopStatsCache{}
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:    store,
		cache:    statsCache,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		versions: newStatsVersions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the zone session dates and times are recorded in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// CheckInRequest describes a check-in. A zero At means now.
type CheckInRequest struct {
	ParticipantID int
	ProgramID     int
	At            time.Time
	Note          *string
	RecordedBy    int
}

// CheckIn opens an attendance record for the participant's session on the
// day of At. Only one open record per participant, program and day is
// allowed.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (model.AttendanceEntry, error) {
	entry, err := s.checkIn(ctx, req)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncAttendanceEvent(notify.EventCheckIn, result)
	return entry, err
}

func (s *Service) checkIn(ctx context.Context, req CheckInRequest) (model.AttendanceEntry, error) {
	participant, err := s.store.GetParticipant(req.ParticipantID)
	if err != nil {
		return model.AttendanceEntry{}, fmt.Errorf("participant %d: %w", req.ParticipantID, err)
	}
	program, err := s.store.GetProgram(req.ProgramID)
	if err != nil {
		return model.AttendanceEntry{}, fmt.Errorf("program %d: %w", req.ProgramID, err)
	}

	at := s.localTime(req.At)
	day := db.DateOnly(at)

	_, err = s.store.GetOpenAttendance(participant.ID, program.ID, day)
	switch {
	case err == nil:
		return model.AttendanceEntry{}, ErrAlreadyCheckedIn
	case !errors.Is(err, db.ErrNotFound):
		return model.AttendanceEntry{}, err
	}

	rec, err := s.store.CreateAttendance(model.AttendanceRecord{
		ParticipantID: participant.ID,
		ProgramID:     program.ID,
		SessionDate:   day,
		CheckIn:       at.Format(storedTimeLayout),
		Note:          req.Note,
		CreatedBy:     req.RecordedBy,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return model.AttendanceEntry{}, ErrAlreadyCheckedIn
	}
	if err != nil {
		return model.AttendanceEntry{}, err
	}

	log.Info().
		Int("participant_id", participant.ID).
		Int("program_id", program.ID).
		Str("session_date", day.Format(db.DateLayout)).
		Str("check_in", rec.CheckIn).
		Msg("participant checked in")

	s.afterChange(ctx, notify.EventCheckIn, rec, rec.CheckIn, at)
	return toEntry(rec, participant.FullName, program.Name), nil
}

// CheckOut closes the open attendance record for the participant's session
// on the day of at. A zero at means now.
func (s *Service) CheckOut(ctx context.Context, participantID, programID int, at time.Time) (model.AttendanceEntry, error) {
	entry, err := s.checkOut(ctx, participantID, programID, at)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncAttendanceEvent(notify.EventCheckOut, result)
	return entry, err
}

func (s *Service) checkOut(ctx context.Context, participantID, programID int, at time.Time) (model.AttendanceEntry, error) {
	participant, err := s.store.GetParticipant(participantID)
	if err != nil {
		return model.AttendanceEntry{}, fmt.Errorf("participant %d: %w", participantID, err)
	}
	program, err := s.store.GetProgram(programID)
	if err != nil {
		return model.AttendanceEntry{}, fmt.Errorf("program %d: %w", programID, err)
	}

	local := s.localTime(at)
	open, err := s.store.GetOpenAttendance(participantID, programID, db.DateOnly(local))
	if errors.Is(err, db.ErrNotFound) {
		return model.AttendanceEntry{}, ErrNotCheckedIn
	}
	if err != nil {
		return model.AttendanceEntry{}, err
	}

	checkOut := local.Format(storedTimeLayout)
	if earlier(checkOut, open.CheckIn) {
		return model.AttendanceEntry{}, ErrCheckOutBeforeCheckIn
	}

	rec, err := s.store.SetCheckOut(open.ID, checkOut)
	if err != nil {
		return model.AttendanceEntry{}, err
	}

	log.Info().
		Int("participant_id", participantID).
		Int("program_id", programID).
		Str("check_out", checkOut).
		Msg("participant checked out")

	s.afterChange(ctx, notify.EventCheckOut, rec, checkOut, local)
	return toEntry(rec, participant.FullName, program.Name), nil
}

// afterChange invalidates cached stats and publishes the event. Failures
// here are logged; the attendance record is already stored.
func (s *Service) afterChange(ctx context.Context, eventType string, rec model.AttendanceRecord, stored string, at time.Time) {
	s.versions.bump(rec.ParticipantID)
	if err := s.cache.Invalidate(ctx, rec.ParticipantID); err != nil {
		log.Error().Err(err).Int("participant_id", rec.ParticipantID).Msg("failed to invalidate stats cache")
	}

	ev := notify.AttendanceEvent{
		Type:          eventType,
		ParticipantID: rec.ParticipantID,
		ProgramID:     rec.ProgramID,
		SessionDate:   rec.SessionDate.Format(db.DateLayout),
		Time:          stored,
		TimeDisplay:   timefmt.Format12h(stored),
		Timestamp:     at,
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		log.Error().Err(err).Str("type", eventType).Int("program_id", rec.ProgramID).Msg("failed to publish attendance event")
	}
}

// History returns the participant's attendance, newest first, ready for the
// history panel. limit <= 0 returns everything.
func (s *Service) History(ctx context.Context, participantID, limit int) ([]model.AttendanceEntry, error) {
	participant, err := s.store.GetParticipant(participantID)
	if err != nil {
		return nil, fmt.Errorf("participant %d: %w", participantID, err)
	}

	records, err := s.store.ListAttendanceByParticipant(participantID, limit)
	if err != nil {
		return nil, err
	}

	names := map[int]string{}
	entries := make([]model.AttendanceEntry, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := names[rec.ProgramID]
		if !ok {
			name = s.programName(rec.ProgramID)
			names[rec.ProgramID] = name
		}
		entries = append(entries, toEntry(rec, participant.FullName, name))
	}
	return entries, nil
}

// ProgramRoster lists everyone recorded at one session of a program.
func (s *Service) ProgramRoster(ctx context.Context, programID int, date time.Time) ([]model.AttendanceEntry, error) {
	program, err := s.store.GetProgram(programID)
	if err != nil {
		return nil, fmt.Errorf("program %d: %w", programID, err)
	}

	records, err := s.store.ListAttendanceByProgram(programID, db.DateOnly(date))
	if err != nil {
		return nil, err
	}

	entries := make([]model.AttendanceEntry, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := ""
		if p, err := s.store.GetParticipant(rec.ParticipantID); err == nil {
			name = p.FullName
		}
		entries = append(entries, toEntry(rec, name, program.Name))
	}
	return entries, nil
}

func (s *Service) programName(id int) string {
	p, err := s.store.GetProgram(id)
	if err != nil {
		log.Warn().Err(err).Int("program_id", id).Msg("attendance references unknown program")
		return ""
	}
	return p.Name
}

func (s *Service) localTime(at time.Time) time.Time {
	if at.IsZero() {
		at = s.now()
	}
	return at.In(s.loc)
}

// earlier reports whether stored time a is before b. Text that does not
// parse as a stored time falls back to string order.
func earlier(a, b string) bool {
	ta, errA := time.Parse(storedTimeLayout, a)
	tb, errB := time.Parse(storedTimeLayout, b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}

func toEntry(rec model.AttendanceRecord, participantName, programName string) model.AttendanceEntry {
	return model.AttendanceEntry{
		Record:          rec,
		ParticipantName: participantName,
		ProgramName:     programName,
		Date:            rec.SessionDate.Format(db.DateLayout),
		CheckIn:         displayTime(&rec.CheckIn),
		CheckOut:        displayTime(rec.CheckOut),
	}
}

// displayTime renders a stored time for people, counting how often stored
// values could not be formatted.
func displayTime(raw *string) string {
	out := timefmt.Format12hPtr(raw)
	switch {
	case out == timefmt.Placeholder:
		metrics.IncTimeFormat("placeholder")
	case out == *raw:
		metrics.IncTimeFormat("raw")
	default:
		metrics.IncTimeFormat("formatted")
	}
	return out
}
