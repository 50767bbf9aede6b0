package db

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

// start_time is a TIME column; it is read back as text so callers always
// see the stored 24-hour form.
const programColumns = `id, name, description, location, to_char(start_time, 'HH24:MI') AS start_time,
	duration_minutes, recurrence, first_session, created_by, created_at, updated_at`

func (s *pgStore) CreateProgram(p model.Program) (model.Program, error) {
	var out model.Program
	query := `
	INSERT INTO programs
	  (name, description, location, start_time, duration_minutes, recurrence, first_session, created_by, created_at, updated_at)
	VALUES
	  ($1, $2, $3, $4::time, $5, $6, $7::date, $8, now(), now())
	RETURNING ` + programColumns + `;`
	err := s.db.Get(&out, query,
		p.Name,
		p.Description,
		p.Location,
		p.StartTime,
		p.DurationMinutes,
		p.Recurrence,
		p.FirstSession.Format(DateLayout),
		p.CreatedBy,
	)
	if err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("CreateProgram failed")
		return model.Program{}, translate(err)
	}
	return out, nil
}

func (s *pgStore) GetProgram(id int) (model.Program, error) {
	var p model.Program
	err := s.db.Get(&p, `SELECT `+programColumns+` FROM programs WHERE id = $1;`, id)
	return p, translate(err)
}

func (s *pgStore) ListPrograms() ([]model.Program, error) {
	out := []model.Program{}
	if err := s.db.Select(&out, `SELECT `+programColumns+` FROM programs ORDER BY name, id;`); err != nil {
		log.Error().Err(err).Msg("ListPrograms failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) DeleteProgram(id int) error {
	res, err := s.db.Exec(`DELETE FROM programs WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("program_id", id).Msg("DeleteProgram failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
