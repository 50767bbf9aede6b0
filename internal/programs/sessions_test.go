package programs

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

func weeklyProgram() model.Program {
	loc := "Temple Hall"
	return model.Program{
		ID:              4,
		Name:            "Sunday Feast",
		Location:        &loc,
		StartTime:       "17:30",
		DurationMinutes: 120,
		Recurrence:      "FREQ=WEEKLY;BYDAY=SU",
		FirstSession:    time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestSessionsWeekly(t *testing.T) {
	p := weeklyProgram()
	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC)

	sessions, err := Sessions(p, from, to, time.UTC)
	require.NoError(t, err)
	require.Len(t, sessions, 5)

	assert.Equal(t, time.Date(2025, time.March, 2, 17, 30, 0, 0, time.UTC), sessions[0].Start)
	assert.Equal(t, time.Date(2025, time.March, 2, 19, 30, 0, 0, time.UTC), sessions[0].End)
	assert.Equal(t, "5:30 PM", sessions[0].StartDisplay)
	assert.Equal(t, 4, sessions[0].ProgramID)
	assert.Equal(t, time.Date(2025, time.March, 30, 17, 30, 0, 0, time.UTC), sessions[4].Start)
}

func TestSessionsOneOff(t *testing.T) {
	p := weeklyProgram()
	p.Recurrence = ""
	p.StartTime = "09:05"

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)

	sessions, err := Sessions(p, from, to, time.UTC)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "9:05 AM", sessions[0].StartDisplay)

	sessions, err = Sessions(p, to, to.AddDate(0, 1, 0), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionsErrors(t *testing.T) {
	p := weeklyProgram()
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, err := Sessions(p, now, now.Add(-time.Hour), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidRange)

	bad := p
	bad.StartTime = "25:99"
	_, err = Sessions(bad, now, now.AddDate(0, 1, 0), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidStartTime)

	bad = p
	bad.Recurrence = "FREQ=SOMETIMES"
	_, err = Sessions(bad, now, now.AddDate(0, 1, 0), time.UTC)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)
}

func TestSessionsCapped(t *testing.T) {
	p := weeklyProgram()
	p.Recurrence = "FREQ=DAILY"
	from := p.FirstSession
	to := from.AddDate(3, 0, 0)

	sessions, err := Sessions(p, from, to, time.UTC)
	require.NoError(t, err)
	require.Len(t, sessions, MaxSessions)
	assert.Equal(t, from.AddDate(0, 0, MaxSessions-1), sessions[MaxSessions-1].Start.Truncate(24*time.Hour))

	// a window starting after the first session still fills from its own start
	from = from.AddDate(1, 0, 0)
	sessions, err = Sessions(p, from, from.AddDate(0, 0, 9), time.UTC)
	require.NoError(t, err)
	require.Len(t, sessions, 9)
	assert.False(t, sessions[0].Start.Before(from))
}

func TestSubDailyRecurrenceRejected(t *testing.T) {
	for _, rule := range []string{"FREQ=HOURLY", "FREQ=MINUTELY", "FREQ=SECONDLY;INTERVAL=1"} {
		p := weeklyProgram()
		p.Recurrence = rule
		assert.ErrorIs(t, Validate(p), ErrInvalidRecurrence, rule)

		start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		_, err := Sessions(p, start, start.AddDate(0, 0, 30), time.UTC)
		assert.ErrorIs(t, err, ErrInvalidRecurrence, rule)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(weeklyProgram()))

	p := weeklyProgram()
	p.DurationMinutes = 0
	assert.Error(t, Validate(p))

	p = weeklyProgram()
	p.StartTime = "noon"
	assert.ErrorIs(t, Validate(p), ErrInvalidStartTime)

	p = weeklyProgram()
	p.Recurrence = "BYDAY=XX"
	assert.ErrorIs(t, Validate(p), ErrInvalidRecurrence)
}

func TestCalendarICS(t *testing.T) {
	p := weeklyProgram()
	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	sessions, err := Sessions(p, from, to, time.UTC)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	out := CalendarICS(p, sessions, from)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, productID)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	require.NotNil(t, summary)
	assert.Equal(t, "Sunday Feast", summary.Value)

	location := events[0].GetProperty(ics.ComponentPropertyLocation)
	require.NotNil(t, location)
	assert.Equal(t, "Temple Hall", location.Value)

	start, err := events[1].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, time.March, 9, 17, 30, 0, 0, time.UTC)))
}
