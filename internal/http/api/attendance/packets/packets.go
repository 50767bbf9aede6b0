package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

// CheckInRequest records a check-in; At defaults to now.
type CheckInRequest struct {
	ParticipantID int        `json:"participant_id" binding:"required"`
	ProgramID     int        `json:"program_id" binding:"required"`
	At            *time.Time `json:"at"`
	Note          *string    `json:"note"`
}

type CheckOutRequest struct {
	ParticipantID int        `json:"participant_id" binding:"required"`
	ProgramID     int        `json:"program_id" binding:"required"`
	At            *time.Time `json:"at"`
}

// EntryResponse is one row of the attendance history panel. CheckIn and
// CheckOut are display strings; the raw stored values are kept alongside.
type EntryResponse struct {
	ID              int     `json:"id"`
	ParticipantID   int     `json:"participant_id"`
	ParticipantName string  `json:"participant_name"`
	ProgramID       int     `json:"program_id"`
	ProgramName     string  `json:"program_name"`
	Date            string  `json:"date"`
	CheckIn         string  `json:"check_in"`
	CheckOut        string  `json:"check_out"`
	CheckInRaw      string  `json:"check_in_raw"`
	CheckOutRaw     *string `json:"check_out_raw"`
	Note            *string `json:"note"`
}

func FromEntry(e model.AttendanceEntry) EntryResponse {
	return EntryResponse{
		ID:              e.Record.ID,
		ParticipantID:   e.Record.ParticipantID,
		ParticipantName: e.ParticipantName,
		ProgramID:       e.Record.ProgramID,
		ProgramName:     e.ProgramName,
		Date:            e.Date,
		CheckIn:         e.CheckIn,
		CheckOut:        e.CheckOut,
		CheckInRaw:      e.Record.CheckIn,
		CheckOutRaw:     e.Record.CheckOut,
		Note:            e.Record.Note,
	}
}

func FromEntries(entries []model.AttendanceEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromEntry(e))
	}
	return out
}

// StatsResponse backs the participant stat card.
type StatsResponse struct {
	ParticipantID    int     `json:"participant_id"`
	TotalSessions    int     `json:"total_sessions"`
	DistinctPrograms int     `json:"distinct_programs"`
	Last30Days       int     `json:"last_30_days"`
	FirstSession     *string `json:"first_session"`
	LastSession      *string `json:"last_session"`
	LastCheckIn      string  `json:"last_check_in"`
	WeeklyStreak     int     `json:"weekly_streak"`
	ComputedAt       string  `json:"computed_at"`
}
