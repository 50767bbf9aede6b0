package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

// APIError is returned by handlers and written as {"error": Message}.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func BadRequest(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: msg}
}

func NotFound(what string) *APIError {
	return &APIError{Code: http.StatusNotFound, Message: what + " not found"}
}

func Conflict(msg string) *APIError {
	return &APIError{Code: http.StatusConflict, Message: msg}
}

// Internal logs err and hides it from the client.
func Internal(err error, msg string) *APIError {
	log.Error().Err(err).Msg(msg)
	return &APIError{Code: http.StatusInternalServerError, Message: "something went wrong, please try again"}
}

// StoreError maps store sentinels onto HTTP errors.
func StoreError(err error, what string) *APIError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return NotFound(what)
	case errors.Is(err, db.ErrDuplicate):
		return Conflict(what + " already exists")
	}
	return Internal(err, fmt.Sprintf("%s store operation failed", what))
}

// Response overrides the default 200 status.
type Response struct {
	Status int
	Body   any
}

// File is written as a raw download instead of JSON.
type File struct {
	ContentType string
	Filename    string
	Inline      bool
	Data        []byte
}

// IDParam parses a positive integer path parameter.
func IDParam(ctx *gin.Context, name string) (int, *APIError) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, BadRequest("invalid " + name)
	}
	return id, nil
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		write(ctx, result, apiErr)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		write(ctx, result, apiErr)
	}
}

func write(ctx *gin.Context, result any, apiErr *APIError) {
	if apiErr != nil {
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}

	switch r := result.(type) {
	case Response:
		if r.Body == nil {
			ctx.Status(r.Status)
			return
		}
		ctx.JSON(r.Status, r.Body)
	case File:
		disposition := "attachment"
		if r.Inline {
			disposition = "inline"
		}
		if r.Filename != "" {
			ctx.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, r.Filename))
		}
		ctx.Data(http.StatusOK, r.ContentType, r.Data)
	default:
		ctx.JSON(http.StatusOK, result)
	}
}

// DateQuery parses an optional YYYY-MM-DD query parameter.
func DateQuery(ctx *gin.Context, name string, def time.Time) (time.Time, *APIError) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(db.DateLayout, raw)
	if err != nil {
		return time.Time{}, BadRequest(fmt.Sprintf("%s must be YYYY-MM-DD", name))
	}
	return t, nil
}
