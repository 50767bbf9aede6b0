package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api/participants/packets"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/storage"
)

type ParticipantController struct {
	store   db.Store
	storage storage.Storage
}

// ParticipantModule mounts the participant directory endpoints.
func ParticipantModule(store db.Store, st storage.Storage) api.Module {
	ctl := &ParticipantController{store: store, storage: st}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/participants", ctl.listParticipants)
		c.POST("/participants", ctl.createParticipant)
		c.GET("/participants/:id", ctl.getParticipant)
		c.PUT("/participants/:id", ctl.updateParticipant)
		c.DELETE("/participants/:id", ctl.deleteParticipant)
		c.POST("/participants/:id/photo", ctl.uploadPhoto)
	})
}

// GET /api/participants?search=
func (p *ParticipantController) listParticipants(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := p.store.ListParticipants(ctx.Query("search"))
	if err != nil {
		return nil, api.StoreError(err, "participant")
	}
	out := make([]packets.ParticipantResponse, 0, len(all))
	for _, x := range all {
		out = append(out, toResponse(x))
	}
	return out, nil
}

// POST /api/participants
func (p *ParticipantController) createParticipant(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateParticipantRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	created, err := p.store.CreateParticipant(request.FullName, request.Email, request.Phone, user.ID)
	if err != nil {
		return nil, api.StoreError(err, "participant")
	}

	log.Info().Int("participant_id", created.ID).Int("user_id", user.ID).Msg("participant created")
	return api.Response{Status: http.StatusCreated, Body: toResponse(created)}, nil
}

// GET /api/participants/:id
func (p *ParticipantController) getParticipant(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	x, err := p.store.GetParticipant(id)
	if err != nil {
		return nil, api.StoreError(err, "participant")
	}
	return toResponse(x), nil
}

// PUT /api/participants/:id
func (p *ParticipantController) updateParticipant(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.UpdateParticipantRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	updated, err := p.store.UpdateParticipant(id, request.FullName, request.Email, request.Phone)
	if err != nil {
		return nil, api.StoreError(err, "participant")
	}
	return toResponse(updated), nil
}

// DELETE /api/participants/:id
func (p *ParticipantController) deleteParticipant(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := p.store.DeleteParticipant(id); err != nil {
		return nil, api.StoreError(err, "participant")
	}
	log.Info().Int("participant_id", id).Int("user_id", user.ID).Msg("participant deleted")
	return api.Response{Status: http.StatusNoContent}, nil
}

// POST /api/participants/:id/photo (multipart field "photo")
func (p *ParticipantController) uploadPhoto(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, err := p.store.GetParticipant(id); err != nil {
		return nil, api.StoreError(err, "participant")
	}

	fileHeader, err := ctx.FormFile("photo")
	if err != nil {
		return nil, api.BadRequest("photo file is required")
	}

	url, err := storage.SavePhoto(ctx.Request.Context(), p.storage, id, fileHeader)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return nil, &api.APIError{Code: http.StatusRequestEntityTooLarge, Message: err.Error()}
	case errors.Is(err, storage.ErrUnsupportedType):
		return nil, api.BadRequest(err.Error())
	case err != nil:
		return nil, api.Internal(err, "could not store photo")
	}

	if err := p.store.SetParticipantPhoto(id, url); err != nil {
		return nil, api.StoreError(err, "participant")
	}
	updated, err := p.store.GetParticipant(id)
	if err != nil {
		return nil, api.StoreError(err, "participant")
	}
	return toResponse(updated), nil
}

func toResponse(p model.Participant) packets.ParticipantResponse {
	return packets.ParticipantResponse{
		ID:        p.ID,
		FullName:  p.FullName,
		Email:     p.Email,
		Phone:     p.Phone,
		PhotoURL:  p.PhotoURL,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}
