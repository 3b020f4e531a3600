// internal/handlers/rooms.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/auth"
)

// ListRoomsHandler returns a summary of every live room.
func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, gs.Registry.List())
	}
}

type sessionResponse struct {
	PlayerID uuid.UUID `json:"playerId"`
	Name     string    `json:"name"`
	Token    string    `json:"token"`
}

// SessionHandler issues a player identity. A caller with a valid token keeps their id,
// optionally under a new name; anyone else gets a fresh one. The token is returned in the
// body and set as the auth_token cookie.
func SessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, name, err := identify(r)
	if err != nil {
		id, name = uuid.New(), ""
	}
	if n := strings.TrimSpace(r.URL.Query().Get("name")); n != "" {
		name = n
	}

	token, err := auth.CreateJWT(id, name)
	if err != nil {
		http.Error(w, "failed to create token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sessionResponse{PlayerID: id, Name: name, Token: token})
}

// HealthHandler reports liveness and the number of open rooms.
func HealthHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"rooms":  gs.Registry.Len(),
		})
	}
}
