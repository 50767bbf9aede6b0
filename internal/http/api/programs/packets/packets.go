package packets

type CreateProgramRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     *string `json:"description"`
	Location        *string `json:"location"`
	StartTime       string  `json:"start_time" binding:"required"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1"`
	Recurrence      string  `json:"recurrence"`
	FirstSession    string  `json:"first_session" binding:"required"`
}

// ProgramResponse carries the stored 24-hour start time and its display form.
type ProgramResponse struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	Location         *string `json:"location"`
	StartTime        string  `json:"start_time"`
	StartTimeDisplay string  `json:"start_time_display"`
	DurationMinutes  int     `json:"duration_minutes"`
	Recurrence       string  `json:"recurrence"`
	FirstSession     string  `json:"first_session"`
	CreatedAt        string  `json:"created_at"`
}

type SessionResponse struct {
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	StartDisplay string `json:"start_display"`
}
