package model

import "time"

// AttendanceRecord is one check-in of a participant at a program session.
// CheckIn and CheckOut hold the stored 24-hour text ("HH:mm:ss").
type AttendanceRecord struct {
	ID            int       `db:"id"             json:"id"`
	ParticipantID int       `db:"participant_id" json:"participant_id"`
	ProgramID     int       `db:"program_id"     json:"program_id"`
	SessionDate   time.Time `db:"session_date"   json:"session_date"`
	CheckIn       string    `db:"check_in"       json:"check_in"`
	CheckOut      *string   `db:"check_out"      json:"check_out,omitempty"`
	Note          *string   `db:"note"           json:"note,omitempty"`
	CreatedBy     int       `db:"created_by"     json:"created_by"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}

// AttendanceEntry is an AttendanceRecord prepared for display.
type AttendanceEntry struct {
	Record          AttendanceRecord `json:"record"`
	ParticipantName string           `json:"participant_name"`
	ProgramName     string           `json:"program_name"`
	Date            string           `json:"date"`
	CheckIn         string           `json:"check_in"`
	CheckOut        string           `json:"check_out"`
}

// AttendanceStats backs the participant stat card.
type AttendanceStats struct {
	ParticipantID    int        `json:"participant_id"`
	TotalSessions    int        `json:"total_sessions"`
	DistinctPrograms int        `json:"distinct_programs"`
	Last30Days       int        `json:"last_30_days"`
	FirstSession     *time.Time `json:"first_session,omitempty"`
	LastSession      *time.Time `json:"last_session,omitempty"`
	LastCheckIn      string     `json:"last_check_in"`
	WeeklyStreak     int        `json:"weekly_streak"`
	ComputedAt       time.Time  `json:"computed_at"`
}
