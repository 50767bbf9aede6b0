package model

import "time"

// Yatra is a group travel event (pilgrimage, retreat trip).
type Yatra struct {
	ID            int       `db:"id"             json:"id"`
	Name          string    `db:"name"           json:"name"`
	Destination   string    `db:"destination"    json:"destination"`
	StartDate     time.Time `db:"start_date"     json:"start_date"`
	EndDate       time.Time `db:"end_date"       json:"end_date"`
	DepartureTime *string   `db:"departure_time" json:"departure_time,omitempty"`
	Capacity      int       `db:"capacity"       json:"capacity"`
	CreatedBy     int       `db:"created_by"     json:"created_by"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

type YatraRegistration struct {
	ID            int       `db:"id"             json:"id"`
	YatraID       int       `db:"yatra_id"       json:"yatra_id"`
	ParticipantID int       `db:"participant_id" json:"participant_id"`
	RegisteredAt  time.Time `db:"registered_at"  json:"registered_at"`
	RegisteredBy  int       `db:"registered_by"  json:"registered_by"`
}
