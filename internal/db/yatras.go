package db

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

const yatraColumns = `id, name, destination, start_date, end_date,
	to_char(departure_time, 'HH24:MI') AS departure_time, capacity, created_by, created_at, updated_at`

func (s *pgStore) CreateYatra(y model.Yatra) (model.Yatra, error) {
	var out model.Yatra
	query := `
	INSERT INTO yatras
	  (name, destination, start_date, end_date, departure_time, capacity, created_by, created_at, updated_at)
	VALUES
	  ($1, $2, $3::date, $4::date, $5::time, $6, $7, now(), now())
	RETURNING ` + yatraColumns + `;`
	err := s.db.Get(&out, query,
		y.Name,
		y.Destination,
		y.StartDate.Format(DateLayout),
		y.EndDate.Format(DateLayout),
		y.DepartureTime,
		y.Capacity,
		y.CreatedBy,
	)
	if err != nil {
		log.Error().Err(err).Str("name", y.Name).Msg("CreateYatra failed")
		return model.Yatra{}, translate(err)
	}
	return out, nil
}

func (s *pgStore) GetYatra(id int) (model.Yatra, error) {
	var y model.Yatra
	err := s.db.Get(&y, `SELECT `+yatraColumns+` FROM yatras WHERE id = $1;`, id)
	return y, translate(err)
}

func (s *pgStore) ListYatras() ([]model.Yatra, error) {
	out := []model.Yatra{}
	if err := s.db.Select(&out, `SELECT `+yatraColumns+` FROM yatras ORDER BY start_date, id;`); err != nil {
		log.Error().Err(err).Msg("ListYatras failed")
		return nil, err
	}
	return out, nil
}

// RegisterForYatra links a participant to a yatra. A repeated registration
// returns ErrDuplicate; capacity is enforced by the caller.
func (s *pgStore) RegisterForYatra(yatraID, participantID, registeredBy int) (model.YatraRegistration, error) {
	var r model.YatraRegistration
	err := s.db.Get(&r, `
	INSERT INTO yatra_registrations (yatra_id, participant_id, registered_by, registered_at)
	VALUES ($1, $2, $3, now())
	RETURNING id, yatra_id, participant_id, registered_at, registered_by;`,
		yatraID, participantID, registeredBy)
	if err != nil {
		err = translate(err)
		if err != ErrDuplicate {
			log.Error().Err(err).Int("yatra_id", yatraID).Int("participant_id", participantID).Msg("RegisterForYatra failed")
		}
		return model.YatraRegistration{}, err
	}
	return r, nil
}

func (s *pgStore) ListYatraRegistrations(yatraID int) ([]model.YatraRegistration, error) {
	out := []model.YatraRegistration{}
	err := s.db.Select(&out, `
	SELECT id, yatra_id, participant_id, registered_at, registered_by
	  FROM yatra_registrations
	 WHERE yatra_id = $1
	 ORDER BY registered_at, id;`, yatraID)
	if err != nil {
		log.Error().Err(err).Int("yatra_id", yatraID).Msg("ListYatraRegistrations failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) CountYatraRegistrations(yatraID int) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT count(*) FROM yatra_registrations WHERE yatra_id = $1;`, yatraID)
	return n, err
}
