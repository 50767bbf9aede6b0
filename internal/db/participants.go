package db

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

const participantColumns = `id, full_name, email, phone, photo_url, created_by, created_at, updated_at`

func (s *pgStore) CreateParticipant(fullName string, email, phone *string, createdBy int) (model.Participant, error) {
	var p model.Participant
	query := `
	INSERT INTO participants (full_name, email, phone, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + participantColumns + `;`
	if err := s.db.Get(&p, query, fullName, email, phone, createdBy); err != nil {
		log.Error().Err(err).Msg("failed to create participant")
		return model.Participant{}, translate(err)
	}
	return p, nil
}

func (s *pgStore) GetParticipant(id int) (model.Participant, error) {
	var p model.Participant
	err := s.db.Get(&p, `SELECT `+participantColumns+` FROM participants WHERE id = $1;`, id)
	return p, translate(err)
}

// ListParticipants returns participants ordered by name. A non-empty search
// matches case-insensitively anywhere in the full name.
func (s *pgStore) ListParticipants(search string) ([]model.Participant, error) {
	out := []model.Participant{}
	query := `
	SELECT ` + participantColumns + `
	  FROM participants
	 WHERE $1 = '' OR full_name ILIKE '%' || $1 || '%'
	 ORDER BY full_name, id;`
	if err := s.db.Select(&out, query, search); err != nil {
		log.Error().Err(err).Str("search", search).Msg("failed to list participants")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateParticipant(id int, fullName *string, email, phone *string) (model.Participant, error) {
	var p model.Participant
	query := `
	UPDATE participants
	   SET full_name = COALESCE($2, full_name),
	       email = COALESCE($3, email),
	       phone = COALESCE($4, phone),
	       updated_at = now()
	 WHERE id = $1
	RETURNING ` + participantColumns + `;`
	if err := s.db.Get(&p, query, id, fullName, email, phone); err != nil {
		err = translate(err)
		log.Error().Err(err).Int("participant_id", id).Msg("failed to update participant")
		return model.Participant{}, err
	}
	return p, nil
}

func (s *pgStore) SetParticipantPhoto(id int, url string) error {
	res, err := s.db.Exec(`UPDATE participants SET photo_url = $2, updated_at = now() WHERE id = $1;`, id, url)
	if err != nil {
		log.Error().Err(err).Int("participant_id", id).Msg("failed to set participant photo")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) DeleteParticipant(id int) error {
	res, err := s.db.Exec(`DELETE FROM participants WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("participant_id", id).Msg("failed to delete participant")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
