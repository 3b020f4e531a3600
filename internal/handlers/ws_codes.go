// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected without the dutch subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // Provided auth token was invalid or expired.
	InvalidUserIDError    websocket.StatusCode = 3002 // Player id derived from the token was malformed.
	InvalidRoomError      websocket.StatusCode = 3003 // Room name in the WS URL is empty or malformed.
)
