package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/auth"
	"github.com/jason-s-yu/dutch/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHandlerKeepsIdentity(t *testing.T) {
	require.NoError(t, auth.Init("never"))

	rec := httptest.NewRecorder()
	SessionHandler(rec, httptest.NewRequest(http.MethodGet, "/session?name=dora", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var first sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.NotEqual(t, uuid.Nil, first.PlayerID)
	assert.Equal(t, "dora", first.Name)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// Renaming with the cookie keeps the id.
	req := httptest.NewRequest(http.MethodGet, "/session?name=dee", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	SessionHandler(rec, req)

	var second sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, first.PlayerID, second.PlayerID)
	assert.Equal(t, "dee", second.Name)

	id, name, err := auth.AuthenticateJWT(second.Token)
	require.NoError(t, err)
	assert.Equal(t, first.PlayerID, id)
	assert.Equal(t, "dee", name)
}

func TestSessionHandlerIgnoresBadToken(t *testing.T) {
	require.NoError(t, auth.Init("never"))
	rec := httptest.NewRecorder()
	SessionHandler(rec, httptest.NewRequest(http.MethodGet, "/session?token=nope", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEqual(t, uuid.Nil, resp.PlayerID)
	assert.Empty(t, resp.Name)

	rec = httptest.NewRecorder()
	SessionHandler(rec, httptest.NewRequest(http.MethodDelete, "/session", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListRoomsAndHealth(t *testing.T) {
	srv, gs := newTestServer(t)

	s := gs.Registry.GetOrCreate("beta")
	require.NoError(t, s.Join(uuid.New(), "b1"))
	require.NoError(t, gs.Registry.GetOrCreate("alpha").Join(uuid.New(), "a1"))
	require.NoError(t, s.Join(uuid.New(), "b2"))

	resp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var rooms []game.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 2)
	assert.Equal(t, "alpha", rooms[0].Room)
	assert.Equal(t, "beta", rooms[1].Room)
	assert.Equal(t, 2, rooms[1].Players)
	assert.Equal(t, game.StateLobby, rooms[1].State)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(health.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 2.0, body["rooms"])
}

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc", extractCookieToken("theme=dark; auth_token=abc; x=y", authCookie))
	assert.Equal(t, "", extractCookieToken("theme=dark", authCookie))
	assert.Equal(t, "", extractCookieToken("", authCookie))
}

func TestValidRoom(t *testing.T) {
	assert.True(t, validRoom("table_1-b"))
	for _, bad := range []string{"", "a b", "a/b", "bad.room", "ünï", strings.Repeat("x", 65)} {
		assert.False(t, validRoom(bad), bad)
	}
}

func TestRouterExtras(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/rooms", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dutch.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://dutch.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
