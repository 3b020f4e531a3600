package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/auth"
)

const authCookie = "auth_token"

var roomPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// errNoToken means the request carried no token at all, as opposed to a bad one.
var errNoToken = errors.New("no token")

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, cookieName+"="); ok {
			return v
		}
	}
	return ""
}

// requestToken returns the player token from the "token" query parameter or the auth cookie.
func requestToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return extractCookieToken(r.Header.Get("Cookie"), authCookie)
}

// identify resolves the caller's player id and name from their token. errNoToken is
// returned when there is none to check.
func identify(r *http.Request) (uuid.UUID, string, error) {
	token := requestToken(r)
	if token == "" {
		return uuid.Nil, "", errNoToken
	}
	return auth.AuthenticateJWT(token)
}

// validRoom reports whether room is usable as a room name.
func validRoom(room string) bool {
	return roomPattern.MatchString(room)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
