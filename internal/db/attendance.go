package db

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

// check_in/check_out are TIME columns read back as text ("HH:MM:SS"); the
// display layer formats them.
const attendanceColumns = `id, participant_id, program_id, session_date,
	check_in::text AS check_in, check_out::text AS check_out, note, created_by, created_at`

func (s *pgStore) CreateAttendance(rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	var out model.AttendanceRecord
	query := `
	INSERT INTO attendance (participant_id, program_id, session_date, check_in, check_out, note, created_by, created_at)
	VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7, now())
	RETURNING ` + attendanceColumns + `;`
	err := s.db.Get(&out, query,
		rec.ParticipantID,
		rec.ProgramID,
		rec.SessionDate.Format(DateLayout),
		rec.CheckIn,
		rec.CheckOut,
		rec.Note,
		rec.CreatedBy,
	)
	if err != nil {
		log.Error().Err(err).
			Int("participant_id", rec.ParticipantID).
			Int("program_id", rec.ProgramID).
			Msg("CreateAttendance failed")
		return model.AttendanceRecord{}, translate(err)
	}
	return out, nil
}

// GetOpenAttendance returns the record for the given session that has no
// check-out yet.
func (s *pgStore) GetOpenAttendance(participantID, programID int, date time.Time) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := s.db.Get(&rec, `
	SELECT `+attendanceColumns+`
	  FROM attendance
	 WHERE participant_id = $1 AND program_id = $2 AND session_date = $3::date AND check_out IS NULL
	 ORDER BY id DESC
	 LIMIT 1;`, participantID, programID, date.Format(DateLayout))
	return rec, translate(err)
}

func (s *pgStore) SetCheckOut(id int, checkOut string) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := s.db.Get(&rec, `
	UPDATE attendance SET check_out = $2::time
	 WHERE id = $1
	RETURNING `+attendanceColumns+`;`, id, checkOut)
	if err != nil {
		err = translate(err)
		log.Error().Err(err).Int("attendance_id", id).Msg("SetCheckOut failed")
		return model.AttendanceRecord{}, err
	}
	return rec, nil
}

// ListAttendanceByParticipant returns the newest records first. limit <= 0
// returns everything.
func (s *pgStore) ListAttendanceByParticipant(participantID, limit int) ([]model.AttendanceRecord, error) {
	out := []model.AttendanceRecord{}
	query := `
	SELECT ` + attendanceColumns + `
	  FROM attendance
	 WHERE participant_id = $1
	 ORDER BY session_date DESC, check_in DESC, id DESC`
	args := []any{participantID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	if err := s.db.Select(&out, query, args...); err != nil {
		log.Error().Err(err).Int("participant_id", participantID).Msg("ListAttendanceByParticipant failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListAttendanceByProgram(programID int, date time.Time) ([]model.AttendanceRecord, error) {
	out := []model.AttendanceRecord{}
	err := s.db.Select(&out, `
	SELECT `+attendanceColumns+`
	  FROM attendance
	 WHERE program_id = $1 AND session_date = $2::date
	 ORDER BY check_in, id;`, programID, date.Format(DateLayout))
	if err != nil {
		log.Error().Err(err).Int("program_id", programID).Msg("ListAttendanceByProgram failed")
		return nil, err
	}
	return out, nil
}
