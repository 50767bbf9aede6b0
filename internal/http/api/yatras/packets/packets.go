package packets

type CreateYatraRequest struct {
	Name          string  `json:"name" binding:"required"`
	Destination   string  `json:"destination" binding:"required"`
	StartDate     string  `json:"start_date" binding:"required"`
	EndDate       string  `json:"end_date" binding:"required"`
	DepartureTime *string `json:"departure_time"`
	Capacity      int     `json:"capacity" binding:"min=0"`
}

type RegisterRequest struct {
	ParticipantID int `json:"participant_id" binding:"required"`
}

// YatraResponse shows the departure time in 12-hour form; a yatra without
// one shows the placeholder.
type YatraResponse struct {
	ID                   int     `json:"id"`
	Name                 string  `json:"name"`
	Destination          string  `json:"destination"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	DepartureTime        *string `json:"departure_time"`
	DepartureTimeDisplay string  `json:"departure_time_display"`
	Capacity             int     `json:"capacity"`
	Registered           int     `json:"registered"`
}

type RegistrationResponse struct {
	ID              int    `json:"id"`
	YatraID         int    `json:"yatra_id"`
	ParticipantID   int    `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	RegisteredAt    string `json:"registered_at"`
}
