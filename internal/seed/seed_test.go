package seed

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/timefmt"
)

func demoPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "seed", "demo.yaml")
}

func TestLoadAndApplyDemo(t *testing.T) {
	f, err := Load(demoPath())
	require.NoError(t, err)

	store := db.NewMemoryStore()
	sum, err := f.Apply(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 1, Participants: 3, Programs: 3, Yatras: 1, Registrations: 2, Attendance: 4}, sum)

	user, err := store.GetUserByEmail("desk@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("hare-krishna")))

	programs, err := store.ListPrograms()
	require.NoError(t, err)
	require.Len(t, programs, 3)

	participants, err := store.ListParticipants("madhavi")
	require.NoError(t, err)
	require.Len(t, participants, 1)

	history, err := store.ListAttendanceByParticipant(participants[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Nil(t, history[0].CheckOut)
}

func TestParseNormalizesStartTime(t *testing.T) {
	f, err := Parse([]byte(`
users: [{email: a@example.com, password: pw}]
programs:
  - name: Mangala Arati
    start_time: "4:30"
    duration_minutes: 30
    first_session: "2025-01-01"
`))
	require.NoError(t, err)

	store := db.NewMemoryStore()
	_, err = f.Apply(context.Background(), store)
	require.NoError(t, err)

	programs, err := store.ListPrograms()
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "04:30", programs[0].StartTime)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("participants: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("users: [unterminated"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyUnknownReference(t *testing.T) {
	f, err := Parse([]byte(`
users: [{email: a@example.com, password: pw}]
attendance:
  - participant: Nobody
    program: Nothing
    date: "2025-01-01"
    check_in: "10:00:00"
`))
	require.NoError(t, err)

	_, err = f.Apply(context.Background(), db.NewMemoryStore())
	assert.ErrorContains(t, err, `unknown participant "Nobody"`)
}

func TestApplyNormalizesAttendanceTimes(t *testing.T) {
	f, err := Parse([]byte(`
users: [{email: a@example.com, password: pw}]
participants: [{full_name: Madhavi Dasi}]
programs:
  - name: Morning Class
    start_time: "9:00"
    duration_minutes: 60
    first_session: "2025-01-01"
attendance:
  - participant: Madhavi Dasi
    program: Morning Class
    date: "2025-01-01"
    check_in: "9:00:00"
    check_out: "10:5"
`))
	require.NoError(t, err)
	_, err = f.Apply(context.Background(), db.NewMemoryStore())
	assert.ErrorIs(t, err, timefmt.ErrInvalidTime)

	f.Attendance[0].CheckOut = nil
	store := db.NewMemoryStore()
	_, err = f.Apply(context.Background(), store)
	require.NoError(t, err)

	participants, err := store.ListParticipants("")
	require.NoError(t, err)
	require.Len(t, participants, 1)
	history, err := store.ListAttendanceByParticipant(participants[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "09:00:00", history[0].CheckIn)
}
