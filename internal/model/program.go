package model

import "time"

// Program is a class or gathering that participants attend.
// StartTime is stored 24-hour text ("HH:mm"); Recurrence is an RFC 5545
// RRULE body such as "FREQ=WEEKLY;BYDAY=SU", empty for one-off programs.
type Program struct {
	ID              int       `db:"id"               json:"id"`
	Name            string    `db:"name"             json:"name"`
	Description     *string   `db:"description"      json:"description,omitempty"`
	Location        *string   `db:"location"         json:"location,omitempty"`
	StartTime       string    `db:"start_time"       json:"start_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Recurrence      string    `db:"recurrence"       json:"recurrence"`
	FirstSession    time.Time `db:"first_session"    json:"first_session"`
	CreatedBy       int       `db:"created_by"       json:"created_by"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"       json:"updated_at"`
}

// ProgramSession is one expanded occurrence of a Program.
type ProgramSession struct {
	ProgramID    int       `json:"program_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	StartDisplay string    `json:"start_display"`
}
