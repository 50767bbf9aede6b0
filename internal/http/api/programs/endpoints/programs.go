package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/attendance"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api"
	attpackets "github.com/Nixie-Tech-LLC/attendance/internal/http/api/attendance/packets"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api/programs/packets"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/programs"
	"github.com/Nixie-Tech-LLC/attendance/internal/timefmt"
)

const (
	defaultSessionDays = 30
	maxSessionDays     = 366

	calendarPastDays   = 30
	calendarFutureDays = 180
)

type ProgramController struct {
	store   db.Store
	service *attendance.Service
	now     func() time.Time
}

// ProgramModule mounts program CRUD, session expansion, the iCalendar feed
// and the per-session roster.
func ProgramModule(store db.Store, service *attendance.Service) api.Module {
	ctl := &ProgramController{store: store, service: service, now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/programs", ctl.listPrograms)
		c.POST("/programs", ctl.createProgram)
		c.GET("/programs/:id", ctl.getProgram)
		c.DELETE("/programs/:id", ctl.deleteProgram)

		c.GET("/programs/:id/sessions", ctl.listSessions)
		c.GET("/programs/:id/calendar.ics", ctl.calendar)
		c.GET("/programs/:id/roster", ctl.roster)
	})
}

// GET /api/programs
func (p *ProgramController) listPrograms(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := p.store.ListPrograms()
	if err != nil {
		return nil, api.StoreError(err, "program")
	}
	out := make([]packets.ProgramResponse, 0, len(all))
	for _, x := range all {
		out = append(out, toResponse(x))
	}
	return out, nil
}

// POST /api/programs
func (p *ProgramController) createProgram(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateProgramRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	first, err := time.Parse(db.DateLayout, request.FirstSession)
	if err != nil {
		return nil, api.BadRequest("first_session must be YYYY-MM-DD")
	}
	clock, err := timefmt.ParseClock(request.StartTime)
	if err != nil {
		return nil, api.BadRequest("start_time must be HH:mm")
	}

	program := model.Program{
		Name:            request.Name,
		Description:     request.Description,
		Location:        request.Location,
		StartTime:       clock.Format24h(),
		DurationMinutes: request.DurationMinutes,
		Recurrence:      request.Recurrence,
		FirstSession:    first,
		CreatedBy:       user.ID,
	}
	if err := programs.Validate(program); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	created, err := p.store.CreateProgram(program)
	if err != nil {
		return nil, api.StoreError(err, "program")
	}

	log.Info().Int("program_id", created.ID).Str("recurrence", created.Recurrence).Msg("program created")
	return api.Response{Status: http.StatusCreated, Body: toResponse(created)}, nil
}

// GET /api/programs/:id
func (p *ProgramController) getProgram(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	program, apiErr := p.loadProgram(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	return toResponse(program), nil
}

// DELETE /api/programs/:id
func (p *ProgramController) deleteProgram(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := p.store.DeleteProgram(id); err != nil {
		return nil, api.StoreError(err, "program")
	}
	log.Info().Int("program_id", id).Int("user_id", user.ID).Msg("program deleted")
	return api.Response{Status: http.StatusNoContent}, nil
}

// GET /api/programs/:id/sessions?from=YYYY-MM-DD&to=YYYY-MM-DD
func (p *ProgramController) listSessions(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	program, apiErr := p.loadProgram(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	loc := p.service.Location()
	today := db.DateOnly(p.now().In(loc))
	from, apiErr := api.DateQuery(ctx, "from", today)
	if apiErr != nil {
		return nil, apiErr
	}
	to, apiErr := api.DateQuery(ctx, "to", from.AddDate(0, 0, defaultSessionDays))
	if apiErr != nil {
		return nil, apiErr
	}
	if to.Sub(from) > maxSessionDays*24*time.Hour {
		return nil, api.BadRequest("session range is limited to one year")
	}

	sessions, apiErr := expand(program, from, to, loc)
	if apiErr != nil {
		return nil, apiErr
	}

	out := make([]packets.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, packets.SessionResponse{
			Date:         s.Start.Format(db.DateLayout),
			Start:        s.Start.Format(time.RFC3339),
			End:          s.End.Format(time.RFC3339),
			StartDisplay: s.StartDisplay,
		})
	}
	return out, nil
}

// GET /api/programs/:id/calendar.ics
func (p *ProgramController) calendar(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	program, apiErr := p.loadProgram(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	loc := p.service.Location()
	now := p.now().In(loc)
	today := db.DateOnly(now)
	sessions, apiErr := expand(program, today.AddDate(0, 0, -calendarPastDays), today.AddDate(0, 0, calendarFutureDays), loc)
	if apiErr != nil {
		return nil, apiErr
	}

	return api.File{
		ContentType: "text/calendar; charset=utf-8",
		Filename:    "program.ics",
		Inline:      true,
		Data:        []byte(programs.CalendarICS(program, sessions, now)),
	}, nil
}

// GET /api/programs/:id/roster?date=YYYY-MM-DD
func (p *ProgramController) roster(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	date, apiErr := api.DateQuery(ctx, "date", db.DateOnly(p.now().In(p.service.Location())))
	if apiErr != nil {
		return nil, apiErr
	}

	entries, err := p.service.ProgramRoster(ctx.Request.Context(), id, date)
	if errors.Is(err, db.ErrNotFound) {
		return nil, api.NotFound("program")
	}
	if err != nil {
		return nil, api.Internal(err, "could not load roster")
	}
	return attpackets.FromEntries(entries), nil
}

func (p *ProgramController) loadProgram(ctx *gin.Context) (model.Program, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return model.Program{}, apiErr
	}
	program, err := p.store.GetProgram(id)
	if err != nil {
		return model.Program{}, api.StoreError(err, "program")
	}
	return program, nil
}

// expand treats from and to as calendar dates in loc, to inclusive.
func expand(program model.Program, from, to time.Time, loc *time.Location) ([]model.ProgramSession, *api.APIError) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, loc)

	sessions, err := programs.Sessions(program, start, end, loc)
	if errors.Is(err, programs.ErrInvalidRange) {
		return nil, api.BadRequest("to must not be before from")
	}
	if errors.Is(err, programs.ErrInvalidRecurrence) {
		return nil, api.BadRequest(err.Error())
	}
	if err != nil {
		return nil, api.Internal(err, "could not expand program sessions")
	}
	return sessions, nil
}

func toResponse(p model.Program) packets.ProgramResponse {
	return packets.ProgramResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Location:         p.Location,
		StartTime:        p.StartTime,
		StartTimeDisplay: timefmt.Format12h(p.StartTime),
		DurationMinutes:  p.DurationMinutes,
		Recurrence:       p.Recurrence,
		FirstSession:     p.FirstSession.Format(db.DateLayout),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}
