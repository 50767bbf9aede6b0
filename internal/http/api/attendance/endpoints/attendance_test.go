package endpoints

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Nixie-Tech-LLC/attendance/internal/attendance"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api/apitest"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api/attendance/packets"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type env struct {
	*apitest.Harness
	participant model.Participant
	program     model.Program
}

func newEnv(t *testing.T) *env {
	now := time.Date(2025, time.March, 16, 18, 40, 0, 0, ist)
	h := apitest.New(t, func(store db.Store) ([]api.Module, []api.Module) {
		svc := attendance.NewService(store, nil, nil, ist, attendance.WithClock(func() time.Time { return now }))
		return []api.Module{AttendanceModule(store, svc)}, nil
	})

	e := &env{Harness: h}
	var err error
	e.participant, err = h.Store.CreateParticipant("Madhavi Dasi", nil, nil, h.UserID)
	require.NoError(t, err)
	e.program, err = h.Store.CreateProgram(model.Program{
		Name:            "Sunday Feast",
		StartTime:       "17:30",
		DurationMinutes: 150,
		Recurrence:      "FREQ=WEEKLY;BYDAY=SU",
		FirstSession:    time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		CreatedBy:       h.UserID,
	})
	require.NoError(t, err)
	return e
}

func (e *env) ids() map[string]any {
	return map[string]any{"participant_id": e.participant.ID, "program_id": e.program.ID}
}

func TestCheckInCheckOut(t *testing.T) {
	e := newEnv(t)

	w := e.Do(http.MethodPost, "/api/attendance/checkin", e.ids())
	apitest.Require(t, w, http.StatusCreated)
	entry := apitest.Decode[packets.EntryResponse](t, w)
	assert.Equal(t, "6:40 PM", entry.CheckIn)
	assert.Equal(t, "—", entry.CheckOut)
	assert.Equal(t, "18:40:00", entry.CheckInRaw)
	assert.Nil(t, entry.CheckOutRaw)
	assert.Equal(t, "2025-03-16", entry.Date)

	apitest.Require(t, e.Do(http.MethodPost, "/api/attendance/checkin", e.ids()), http.StatusConflict)

	body := e.ids()
	body["at"] = time.Date(2025, time.March, 16, 20, 5, 0, 0, ist).Format(time.RFC3339)
	w = e.Do(http.MethodPost, "/api/attendance/checkout", body)
	apitest.Require(t, w, http.StatusOK)
	assert.Equal(t, "8:05 PM", apitest.Decode[packets.EntryResponse](t, w).CheckOut)

	apitest.Require(t, e.Do(http.MethodPost, "/api/attendance/checkout", e.ids()), http.StatusConflict)
}

func TestCheckInErrors(t *testing.T) {
	e := newEnv(t)

	apitest.Require(t, e.Do(http.MethodPost, "/api/attendance/checkin", map[string]any{}), http.StatusBadRequest)
	apitest.Require(t, e.Do(http.MethodPost, "/api/attendance/checkin", map[string]any{
		"participant_id": 999, "program_id": e.program.ID,
	}), http.StatusNotFound)

	apitest.Require(t, e.Do(http.MethodPost, "/api/attendance/checkin", e.ids()), http.StatusCreated)
	body := e.ids()
	body["at"] = time.Date(2025, time.March, 16, 17, 0, 0, 0, ist).Format(time.RFC3339)
	apitest.Require(t, e.Do(http.MethodPost, "/api/attendance/checkout", body), http.StatusBadRequest)
}

func TestHistoryAndStats(t *testing.T) {
	e := newEnv(t)

	legacy := "??"
	for _, rec := range []model.AttendanceRecord{
		{SessionDate: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), CheckIn: "17:25:00", CheckOut: &legacy},
		{SessionDate: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), CheckIn: "09:05"},
	} {
		rec.ParticipantID = e.participant.ID
		rec.ProgramID = e.program.ID
		_, err := e.Store.CreateAttendance(rec)
		require.NoError(t, err)
	}

	path := fmt.Sprintf("/api/participants/%d/attendance", e.participant.ID)
	w := e.Do(http.MethodGet, path, nil)
	apitest.Require(t, w, http.StatusOK)
	history := apitest.Decode[[]packets.EntryResponse](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, "5:25 PM", history[0].CheckIn)
	assert.Equal(t, "??", history[0].CheckOut)
	assert.Equal(t, "Sunday Feast", history[0].ProgramName)
	assert.Equal(t, "9:05 AM", history[1].CheckIn)
	assert.Equal(t, "—", history[1].CheckOut)

	w = e.Do(http.MethodGet, path+"?limit=1", nil)
	apitest.Require(t, w, http.StatusOK)
	assert.Len(t, apitest.Decode[[]packets.EntryResponse](t, w), 1)
	apitest.Require(t, e.Do(http.MethodGet, path+"?limit=-4", nil), http.StatusBadRequest)
	apitest.Require(t, e.Do(http.MethodGet, "/api/participants/999/attendance", nil), http.StatusNotFound)

	w = e.Do(http.MethodGet, fmt.Sprintf("/api/participants/%d/stats", e.participant.ID), nil)
	apitest.Require(t, w, http.StatusOK)
	stats := apitest.Decode[packets.StatsResponse](t, w)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, "5:25 PM", stats.LastCheckIn)
	require.NotNil(t, stats.FirstSession)
	assert.Equal(t, "2025-03-02", *stats.FirstSession)
	// weeks of Mar 9 and Mar 2; the current week (Mar 10-16) has none yet.
	assert.Equal(t, 2, stats.WeeklyStreak)
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	apitest.Require(t, e.Do(http.MethodPost, "/api/attendance/checkin", e.ids()), http.StatusCreated)

	path := fmt.Sprintf("/api/participants/%d/attendance/export", e.participant.ID)

	w := e.Do(http.MethodGet, path+"?format=xlsx", nil)
	apitest.Require(t, w, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("attendance-%d.xlsx", e.participant.ID))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	checkIn, err := f.GetCellValue("history", "C2")
	require.NoError(t, err)
	assert.Equal(t, "6:40 PM", checkIn)

	w = e.Do(http.MethodGet, path+"?format=pdf", nil)
	apitest.Require(t, w, http.StatusOK)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	apitest.Require(t, e.Do(http.MethodGet, path+"?format=csv", nil), http.StatusBadRequest)
}
