package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/attendance/internal/cache"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/notify"
)

type memoryCache struct {
	mu          sync.Mutex
	entries     map[int]model.AttendanceStats
	invalidated []int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[int]model.AttendanceStats{}}
}

func (c *memoryCache) Get(_ context.Context, id int) (model.AttendanceStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	if !ok {
		return model.AttendanceStats{}, cache.ErrMiss
	}
	return s, nil
}

func (c *memoryCache) Set(_ context.Context, s model.AttendanceStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[s.ParticipantID] = s
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.AttendanceEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, ev notify.AttendanceEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) Close() {}

type fixture struct {
	store       *db.MemoryStore
	cache       *memoryCache
	notifier    *recordingNotifier
	svc         *Service
	userID      int
	participant model.Participant
	program     model.Program
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc := time.FixedZone("IST", 5*3600+1800)
	f := &fixture{
		store:    db.NewMemoryStore(),
		cache:    newMemoryCache(),
		notifier: &recordingNotifier{},
		now:      time.Date(2025, time.March, 16, 18, 40, 0, 0, loc),
	}
	f.svc = NewService(f.store, f.cache, f.notifier, loc, WithClock(func() time.Time { return f.now }))

	var err error
	f.userID, err = f.store.CreateUser("desk@example.com", "hash", nil)
	require.NoError(t, err)
	f.participant, err = f.store.CreateParticipant("Madhavi Dasi", nil, nil, f.userID)
	require.NoError(t, err)
	f.program, err = f.store.CreateProgram(model.Program{
		Name:            "Bhagavad Gita Class",
		StartTime:       "18:30",
		DurationMinutes: 90,
		Recurrence:      "FREQ=WEEKLY;BYDAY=SU",
		FirstSession:    time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		CreatedBy:       f.userID,
	})
	require.NoError(t, err)
	return f
}

func TestCheckInAndOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.CheckIn(ctx, CheckInRequest{
		ParticipantID: f.participant.ID,
		ProgramID:     f.program.ID,
		RecordedBy:    f.userID,
	})
	require.NoError(t, err)
	assert.Equal(t, "18:40:00", entry.Record.CheckIn)
	assert.Equal(t, "6:40 PM", entry.CheckIn)
	assert.Equal(t, "—", entry.CheckOut)
	assert.Equal(t, "2025-03-16", entry.Date)
	assert.Equal(t, "Bhagavad Gita Class", entry.ProgramName)
	assert.Equal(t, "Madhavi Dasi", entry.ParticipantName)

	_, err = f.svc.CheckIn(ctx, CheckInRequest{ParticipantID: f.participant.ID, ProgramID: f.program.ID})
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	out, err := f.svc.CheckOut(ctx, f.participant.ID, f.program.ID, f.now.Add(95*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "8:15 PM", out.CheckOut)

	_, err = f.svc.CheckOut(ctx, f.participant.ID, f.program.ID, time.Time{})
	assert.ErrorIs(t, err, ErrNotCheckedIn)

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, notify.EventCheckIn, f.notifier.events[0].Type)
	assert.Equal(t, "6:40 PM", f.notifier.events[0].TimeDisplay)
	assert.Equal(t, notify.EventCheckOut, f.notifier.events[1].Type)
	assert.Equal(t, "20:15:00", f.notifier.events[1].Time)

	assert.Equal(t, []int{f.participant.ID, f.participant.ID}, f.cache.invalidated)
}

func TestCheckInConvertsToServiceZone(t *testing.T) {
	f := newFixture(t)

	// 23:50 UTC is 05:20 the next morning in IST.
	at := time.Date(2025, time.March, 16, 23, 50, 0, 0, time.UTC)
	entry, err := f.svc.CheckIn(context.Background(), CheckInRequest{
		ParticipantID: f.participant.ID,
		ProgramID:     f.program.ID,
		At:            at,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-17", entry.Date)
	assert.Equal(t, "5:20 AM", entry.CheckIn)
}

// slowStore delays open-record lookups like a database round trip.
type slowStore struct {
	*db.MemoryStore
	delay time.Duration
}

func (s *slowStore) GetOpenAttendance(participantID, programID int, date time.Time) (model.AttendanceRecord, error) {
	time.Sleep(s.delay)
	return s.MemoryStore.GetOpenAttendance(participantID, programID, date)
}

func TestConcurrentCheckInsOpenOneRecord(t *testing.T) {
	f := newFixture(t)
	store := &slowStore{MemoryStore: f.store, delay: 10 * time.Millisecond}
	svc := NewService(store, f.cache, f.notifier, f.svc.Location(), WithClock(func() time.Time { return f.now }))

	const attempts = 5
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(context.Background(), CheckInRequest{
				ParticipantID: f.participant.ID,
				ProgramID:     f.program.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	}
	assert.Equal(t, 1, succeeded)

	records, err := f.store.ListAttendanceByParticipant(f.participant.ID, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCheckOutBeforeCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, CheckInRequest{ParticipantID: f.participant.ID, ProgramID: f.program.ID})
	require.NoError(t, err)

	_, err = f.svc.CheckOut(ctx, f.participant.ID, f.program.ID, f.now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrCheckOutBeforeCheckIn)
}

func TestCheckOutComparesClockValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateAttendance(model.AttendanceRecord{
		ParticipantID: f.participant.ID,
		ProgramID:     f.program.ID,
		SessionDate:   time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC),
		CheckIn:       "9:00:00",
	})
	require.NoError(t, err)

	out, err := f.svc.CheckOut(ctx, f.participant.ID, f.program.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "6:40 PM", out.CheckOut)

	assert.True(t, earlier("9:00:00", "10:00:00"))
	assert.False(t, earlier("18:40:00", "9:00:00"))
	assert.True(t, earlier("abc", "abd"))
}

func TestCheckInUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, CheckInRequest{ParticipantID: 999, ProgramID: f.program.ID})
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = f.svc.CheckIn(ctx, CheckInRequest{ParticipantID: f.participant.ID, ProgramID: 999})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestNotifierFailureDoesNotFailCheckIn(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")

	_, err := f.svc.CheckIn(context.Background(), CheckInRequest{ParticipantID: f.participant.ID, ProgramID: f.program.ID})
	assert.NoError(t, err)
}

func TestHistoryRendersStoredTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy := "late"
	seed := []model.AttendanceRecord{
		{SessionDate: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), CheckIn: "09:05:00", CheckOut: &legacy},
		{SessionDate: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), CheckIn: "00:00:00"},
		{SessionDate: time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), CheckIn: "25:99"},
	}
	for _, rec := range seed {
		rec.ParticipantID = f.participant.ID
		rec.ProgramID = f.program.ID
		_, err := f.store.CreateAttendance(rec)
		require.NoError(t, err)
	}

	history, err := f.svc.History(ctx, f.participant.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "2025-03-16", history[0].Date)
	assert.Equal(t, "25:99", history[0].CheckIn)
	assert.Equal(t, "—", history[0].CheckOut)

	assert.Equal(t, "12:00 AM", history[1].CheckIn)

	assert.Equal(t, "9:05 AM", history[2].CheckIn)
	assert.Equal(t, "late", history[2].CheckOut)

	limited, err := f.svc.History(ctx, f.participant.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = f.svc.History(ctx, 12345, 0)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestProgramRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.store.CreateParticipant("Keshava Das", nil, nil, f.userID)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, CheckInRequest{ParticipantID: other.ID, ProgramID: f.program.ID, At: f.now.Add(-10 * time.Minute)})
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, CheckInRequest{ParticipantID: f.participant.ID, ProgramID: f.program.ID})
	require.NoError(t, err)

	roster, err := f.svc.ProgramRoster(ctx, f.program.ID, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Keshava Das", roster[0].ParticipantName)
	assert.Equal(t, "6:30 PM", roster[0].CheckIn)
	assert.Equal(t, "Madhavi Dasi", roster[1].ParticipantName)
}
