package model

import "time"

// Participant is a person whose attendance is tracked.
type Participant struct {
	ID        int       `db:"id"         json:"id"`
	FullName  string    `db:"full_name"  json:"full_name"`
	Email     *string   `db:"email"      json:"email,omitempty"`
	Phone     *string   `db:"phone"      json:"phone,omitempty"`
	PhotoURL  *string   `db:"photo_url"  json:"photo_url,omitempty"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
