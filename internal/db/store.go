// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// DateLayout is the wire and storage form of session dates.
const DateLayout = "2006-01-02"

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// participant functions
	CreateParticipant(fullName string, email, phone *string, createdBy int) (model.Participant, error)
	GetParticipant(id int) (model.Participant, error)
	ListParticipants(search string) ([]model.Participant, error)
	UpdateParticipant(id int, fullName *string, email, phone *string) (model.Participant, error)
	SetParticipantPhoto(id int, url string) error
	DeleteParticipant(id int) error

	// program functions
	CreateProgram(p model.Program) (model.Program, error)
	GetProgram(id int) (model.Program, error)
	ListPrograms() ([]model.Program, error)
	DeleteProgram(id int) error

	// yatra functions
	CreateYatra(y model.Yatra) (model.Yatra, error)
	GetYatra(id int) (model.Yatra, error)
	ListYatras() ([]model.Yatra, error)
	RegisterForYatra(yatraID, participantID, registeredBy int) (model.YatraRegistration, error)
	ListYatraRegistrations(yatraID int) ([]model.YatraRegistration, error)
	CountYatraRegistrations(yatraID int) (int, error)

	// attendance functions
	CreateAttendance(rec model.AttendanceRecord) (model.AttendanceRecord, error)
	GetOpenAttendance(participantID, programID int, date time.Time) (model.AttendanceRecord, error)
	SetCheckOut(id int, checkOut string) (model.AttendanceRecord, error)
	ListAttendanceByParticipant(participantID, limit int) ([]model.AttendanceRecord, error)
	ListAttendanceByProgram(programID int, date time.Time) ([]model.AttendanceRecord, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
// required so linter doesn't complain
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrDuplicate
		case "23503": // foreign_key_violation
			return ErrNotFound
		}
	}
	return err
}

// DateOnly truncates t to its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
