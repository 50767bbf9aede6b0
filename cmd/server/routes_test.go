package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/attendance/internal/attendance"
	"github.com/Nixie-Tech-LLC/attendance/internal/config"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/metrics"
	"github.com/Nixie-Tech-LLC/attendance/internal/storage"
)

func newTestServer(t *testing.T, health map[string]HealthCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.Init()

	cfg, err := config.FromLookup(func(key string) (string, bool) {
		if key == "JWT_SECRET" {
			return "route-test-secret", true
		}
		return "", false
	})
	require.NoError(t, err)
	cfg.UseSpaces = true // skip static upload route

	store := db.NewMemoryStore()
	r := gin.New()
	RegisterRoutes(r, Deps{
		Config:  cfg,
		Store:   store,
		Service: attendance.NewService(store, nil, nil, time.UTC),
		Storage: storage.NewLocalStorage(t.TempDir(), "/uploads"),
		Health:  health,
	})
	return r
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEndToEndCheckIn(t *testing.T) {
	r := newTestServer(t, nil)

	w := do(r, http.MethodPost, "/api/auth/signup", `{"email":"desk@example.com","password":"hare-krishna"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	var participant, program struct {
		ID int `json:"id"`
	}
	w = do(r, http.MethodPost, "/api/participants", `{"full_name":"Madhavi Dasi"}`, tok.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &participant))

	w = do(r, http.MethodPost, "/api/programs",
		`{"name":"Sunday Feast","start_time":"17:30","duration_minutes":150,"first_session":"2025-01-05"}`, tok.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &program))

	w = do(r, http.MethodPost, "/api/attendance/checkin",
		fmt.Sprintf(`{"participant_id":%d,"program_id":%d,"at":"2025-03-16T14:30:00Z"}`, participant.ID, program.ID), tok.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"check_in":"2:30 PM"`)
	assert.Contains(t, w.Body.String(), `"check_out":"—"`)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/participants", "", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	healthy := newTestServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	w := do(healthy, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, w.Body.String())

	w = do(healthy, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "attendance_http_requests_total")

	degraded := newTestServer(t, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = do(degraded, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
