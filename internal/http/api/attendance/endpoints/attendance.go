package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/attendance/internal/attendance"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api/attendance/packets"
	"github.com/Nixie-Tech-LLC/attendance/internal/metrics"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/report"
)

// maxHistoryLimit caps ?limit on the history endpoint.
const maxHistoryLimit = 1000

type AttendanceController struct {
	store   db.Store
	service *attendance.Service
}

// AttendanceModule mounts check-in/out plus the participant history, stat
// card and export endpoints.
func AttendanceModule(store db.Store, service *attendance.Service) api.Module {
	ctl := &AttendanceController{store: store, service: service}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/attendance/checkin", ctl.checkIn)
		c.POST("/attendance/checkout", ctl.checkOut)

		c.GET("/participants/:id/attendance", ctl.history)
		c.GET("/participants/:id/attendance/export", ctl.export)
		c.GET("/participants/:id/stats", ctl.stats)
	})
}

// POST /api/attendance/checkin
func (a *AttendanceController) checkIn(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CheckInRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	req := attendance.CheckInRequest{
		ParticipantID: request.ParticipantID,
		ProgramID:     request.ProgramID,
		Note:          request.Note,
		RecordedBy:    user.ID,
	}
	if request.At != nil {
		req.At = *request.At
	}

	entry, err := a.service.CheckIn(ctx.Request.Context(), req)
	if err != nil {
		return nil, serviceError(err)
	}
	return api.Response{Status: http.StatusCreated, Body: packets.FromEntry(entry)}, nil
}

// POST /api/attendance/checkout
func (a *AttendanceController) checkOut(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CheckOutRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	var at time.Time
	if request.At != nil {
		at = *request.At
	}
	entry, err := a.service.CheckOut(ctx.Request.Context(), request.ParticipantID, request.ProgramID, at)
	if err != nil {
		return nil, serviceError(err)
	}
	return packets.FromEntry(entry), nil
}

// GET /api/participants/:id/attendance?limit=
func (a *AttendanceController) history(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxHistoryLimit {
			return nil, api.BadRequest("limit must be between 0 and 1000")
		}
		limit = n
	}

	entries, err := a.service.History(ctx.Request.Context(), id, limit)
	if err != nil {
		return nil, serviceError(err)
	}
	return packets.FromEntries(entries), nil
}

// GET /api/participants/:id/stats
func (a *AttendanceController) stats(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	s, err := a.service.Stats(ctx.Request.Context(), id)
	if err != nil {
		return nil, serviceError(err)
	}
	return packets.StatsResponse{
		ParticipantID:    s.ParticipantID,
		TotalSessions:    s.TotalSessions,
		DistinctPrograms: s.DistinctPrograms,
		Last30Days:       s.Last30Days,
		FirstSession:     formatDate(s.FirstSession),
		LastSession:      formatDate(s.LastSession),
		LastCheckIn:      s.LastCheckIn,
		WeeklyStreak:     s.WeeklyStreak,
		ComputedAt:       s.ComputedAt.Format(time.RFC3339),
	}, nil
}

// GET /api/participants/:id/attendance/export?format=xlsx|pdf
func (a *AttendanceController) export(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := api.IDParam(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	format := ctx.DefaultQuery("format", report.FormatXLSX)
	if format != report.FormatXLSX && format != report.FormatPDF {
		return nil, api.BadRequest("format must be xlsx or pdf")
	}

	participant, err := a.store.GetParticipant(id)
	if err != nil {
		return nil, api.StoreError(err, "participant")
	}
	entries, err := a.service.History(ctx.Request.Context(), id, 0)
	if err != nil {
		return nil, serviceError(err)
	}

	generated := time.Now().In(a.service.Location())
	var data []byte
	if format == report.FormatPDF {
		data, err = report.HistoryPDF(participant, entries, generated)
	} else {
		data, err = report.HistoryXLSX(participant, entries, generated)
	}
	if err != nil {
		metrics.IncExport(format, metrics.ResultError)
		return nil, api.Internal(err, "could not render attendance export")
	}
	metrics.IncExport(format, metrics.ResultSuccess)

	return api.File{
		ContentType: report.ContentType(format),
		Filename:    report.Filename(participant, format),
		Data:        data,
	}, nil
}

func serviceError(err error) *api.APIError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, attendance.ErrAlreadyCheckedIn), errors.Is(err, attendance.ErrNotCheckedIn):
		return api.Conflict(err.Error())
	case errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		return api.BadRequest(err.Error())
	}
	return api.Internal(err, "attendance operation failed")
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(db.DateLayout)
	return &s
}
