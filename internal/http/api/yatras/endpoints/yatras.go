package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api/yatras/packets"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/timefmt"
)

type YatraController struct {
	store db.Store
}

// YatraModule mounts trip listings and registrations.
func YatraModule(store db.Store) api.Module {
	ctl := &YatraController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/yatras", ctl.listYatras)
		c.POST("/yatras", ctl.createYatra)
		c.GET("/yatras/:id", ctl.getYatra)
		c.GET("/yatras/:id/registrations", ctl.listRegistrations)
		c.POST("/yatras/:id/registrations", ctl.register)
	})
}

// GET /api/yatras
func (y *YatraController) listYatras(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := y.store.ListYatras()
	if err != nil {
		return nil, api.StoreError(err, "yatra")
	}
	out := make([]packets.YatraResponse, 0, len(all))
	for _, x := range all {
		resp, apiErr := y.toResponse(x)
		if apiErr != nil {
			return nil, apiErr
		}
		out = append(out, resp)
	}
	return out, nil
}

// POST /api/yatras
func (y *YatraController) createYatra(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateYatraRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	start, err := time.Parse(db.DateLayout, request.StartDate)
	if err != nil {
		return nil, api.BadRequest("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(db.DateLayout, request.EndDate)
	if err != nil {
		return nil, api.BadRequest("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, api.BadRequest("end_date must not be before start_date")
	}

	var departure *string
	if request.DepartureTime != nil && *request.DepartureTime != "" {
		clock, err := timefmt.ParseClock(*request.DepartureTime)
		if err != nil {
			return nil, api.BadRequest("departure_time must be HH:mm")
		}
		normalized := clock.Format24h()
		departure = &normalized
	}

	created, err := y.store.CreateYatra(model.Yatra{
		Name:          request.Name,
		Destination:   request.Destination,
		StartDate:     start,
		EndDate:       end,
		DepartureTime: departure,
		Capacity:      request.Capacity,
		CreatedBy:     user.ID,
	})
	if err != nil {
		return nil, api.StoreError(err, "yatra")
	}

	log.Info().Int("yatra_id", created.ID).Str("destination", created.Destination).Msg("yatra created")
	resp, apiErr := y.toResponse(created)
	if apiErr != nil {
		return nil, apiErr
	}
	return api.Response{Status: http.StatusCreated, Body: resp}, nil
}

// GET /api/yatras/:id
func (y *YatraController) getYatra(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	yatra, apiErr := y.loadYatra(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	return y.toResponse(yatra)
}

// GET /api/yatras/:id/registrations
func (y *YatraController) listRegistrations(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	yatra, apiErr := y.loadYatra(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	regs, err := y.store.ListYatraRegistrations(yatra.ID)
	if err != nil {
		return nil, api.StoreError(err, "registration")
	}

	out := make([]packets.RegistrationResponse, 0, len(regs))
	for _, r := range regs {
		name := ""
		if p, err := y.store.GetParticipant(r.ParticipantID); err == nil {
			name = p.FullName
		}
		out = append(out, toRegistration(r, name))
	}
	return out, nil
}

// POST /api/yatras/:id/registrations
func (y *YatraController) register(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	yatra, apiErr := y.loadYatra(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	participant, err := y.store.GetParticipant(request.ParticipantID)
	if err != nil {
		return nil, api.StoreError(err, "participant")
	}

	if yatra.Capacity > 0 {
		count, err := y.store.CountYatraRegistrations(yatra.ID)
		if err != nil {
			return nil, api.StoreError(err, "registration")
		}
		if count >= yatra.Capacity {
			return nil, api.Conflict("yatra is full")
		}
	}

	reg, err := y.store.RegisterForYatra(yatra.ID, participant.ID, user.ID)
	if err != nil {
		return nil, api.StoreError(err, "registration")
	}

	log.Info().Int("yatra_id", yatra.ID).Int("participant_id", participant.ID).Msg("participant registered for yatra")
	return api.Response{Status: http.StatusCreated, Body: toRegistration(reg, participant.FullName)}, nil
}

func (y *YatraController) loadYatra(ctx *gin.Context) (model.Yatra, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return model.Yatra{}, apiErr
	}
	yatra, err := y.store.GetYatra(id)
	if err != nil {
		return model.Yatra{}, api.StoreError(err, "yatra")
	}
	return yatra, nil
}

func (y *YatraController) toResponse(x model.Yatra) (packets.YatraResponse, *api.APIError) {
	count, err := y.store.CountYatraRegistrations(x.ID)
	if err != nil {
		return packets.YatraResponse{}, api.StoreError(err, "registration")
	}
	return packets.YatraResponse{
		ID:                   x.ID,
		Name:                 x.Name,
		Destination:          x.Destination,
		StartDate:            x.StartDate.Format(db.DateLayout),
		EndDate:              x.EndDate.Format(db.DateLayout),
		DepartureTime:        x.DepartureTime,
		DepartureTimeDisplay: timefmt.Format12hPtr(x.DepartureTime),
		Capacity:             x.Capacity,
		Registered:           count,
	}, nil
}

func toRegistration(r model.YatraRegistration, participantName string) packets.RegistrationResponse {
	return packets.RegistrationResponse{
		ID:              r.ID,
		YatraID:         r.YatraID,
		ParticipantID:   r.ParticipantID,
		ParticipantName: participantName,
		RegisteredAt:    r.RegisteredAt.Format(time.RFC3339),
	}
}
