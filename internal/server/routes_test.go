package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/gobychat/internal/config"
)

func newRouteServer(t *testing.T, rooms ...string) *Server {
	t.Helper()
	s, err := New(&config.Config{DefaultRooms: rooms}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.RegisterRoutes()
	return s
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoutes_ListRooms(t *testing.T) {
	s := newRouteServer(t, "random", "general")

	rec := get(s, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	assert.Equal(t, []string{"general", "random"}, rooms)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_ListRoomsEmpty(t *testing.T) {
	s := newRouteServer(t)

	rec := get(s, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRoutes_RoomsPageAndFragment(t *testing.T) {
	s := newRouteServer(t, "general")

	page := get(s, "/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `hx-get="/rooms/fragment"`)
	assert.Contains(t, page.Body.String(), `data-room="general"`)

	fragment := get(s, "/rooms/fragment")
	require.Equal(t, http.StatusOK, fragment.Code)
	assert.Contains(t, fragment.Body.String(), `data-room="general"`)
	assert.NotContains(t, fragment.Body.String(), "<html")
}

func TestRoutes_Health(t *testing.T) {
	s := newRouteServer(t)
	rec := get(s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRoutes_WSRejectsPlainRequest(t *testing.T) {
	s := newRouteServer(t)

	rec := get(s, "/ws?username=alice&room=lobby")
	assert.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
	// The room exists as soon as someone asked for it.
	assert.Contains(t, s.Registry.Rooms(), "lobby")
}
