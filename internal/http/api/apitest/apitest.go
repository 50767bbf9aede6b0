// Package apitest builds gin routers over an in-memory store for endpoint
// tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/middleware"
)

const Secret = "test-secret"

type Harness struct {
	t      *testing.T
	Engine *gin.Engine
	Store  *db.MemoryStore
	UserID int
	Token  string
}

// New mounts the modules returned by build under /api, authenticated, plus
// public under /api without auth.
func New(t *testing.T, build func(store db.Store) (authed []api.Module, public []api.Module)) *Harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore()
	hash, err := middleware.HashPassword("hare-krishna")
	require.NoError(t, err)
	userID, err := store.CreateUser("desk@example.com", hash, nil)
	require.NoError(t, err)
	token, err := middleware.GenerateJWT(userID, Secret)
	require.NoError(t, err)

	authed, public := build(store)
	r := gin.New()
	if len(public) > 0 {
		api.MountGroup(r, api.GroupConfig{Prefix: "/api"}, public...)
	}
	api.MountGroup(r, api.GroupConfig{Prefix: "/api", Auth: true, SecretKey: Secret, Store: store}, authed...)

	return &Harness{t: t, Engine: r, Store: store, UserID: userID, Token: token}
}

// Do sends an authenticated request with body encoded as JSON.
func (h *Harness) Do(method, path string, body any) *httptest.ResponseRecorder {
	return h.send(method, path, body, true)
}

// DoPublic sends a request without the Authorization header.
func (h *Harness) DoPublic(method, path string, body any) *httptest.ResponseRecorder {
	return h.send(method, path, body, false)
}

// DoRaw sends an authenticated request with a prebuilt body.
func (h *Harness) DoRaw(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+h.Token)
	w := httptest.NewRecorder()
	h.Engine.ServeHTTP(w, req)
	return w
}

func (h *Harness) send(method, path string, body any, auth bool) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}
	w := httptest.NewRecorder()
	h.Engine.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a JSON response body.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// Require fails unless the response has the wanted status.
func Require(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
