// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/game"
	"github.com/jason-s-yu/dutch/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "dutch"

var errNotJoined = errors.New("join the room first")

// ClientMessage is the envelope of every client command. Only the fields its type needs
// are read.
type ClientMessage struct {
	Type string `json:"type"`

	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"` // draw: "deck" or "discard"
	Choice string `json:"choice,omitempty"` // act: "swap" or "discard"
	Slot   *int   `json:"slot,omitempty"`

	Power          string `json:"power,omitempty"` // resolve_power: "PEEK" or "SWAP"
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
	TargetSlot     *int   `json:"targetSlot,omitempty"`

	Rules map[string]interface{} `json:"rules,omitempty"`
}

// GameWSHandler upgrades /game/ws/{room} to a WebSocket, identifies the player and
// relays their commands to the room's session until the socket closes.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chi.URLParam(r, "room")

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.WithError(err).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != Subprotocol {
			logger.Warnf("client connected with invalid subprotocol %q", c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'dutch' subprotocol.")
			return
		}
		if !validRoom(room) {
			c.Close(InvalidRoomError, "Room names are 1-64 letters, digits, '-' or '_'.")
			return
		}

		playerID, name, err := identify(r)
		switch {
		case errors.Is(err, errNoToken):
			playerID = uuid.New()
		case err != nil:
			logger.WithError(err).Info("rejecting websocket with bad token")
			c.Close(InvalidAuthTokenError, "Invalid auth token.")
			return
		case playerID == uuid.Nil:
			c.Close(InvalidUserIDError, "Invalid player id.")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		entry := logger.WithFields(logrus.Fields{"room": room, "player": playerID})
		conn := newConnection(playerID, name, cancel, entry)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path, logrus.Fields{"room": room, "player": playerID})

		// A player already seated in the room takes over from their previous socket.
		var view game.View
		if s, ok := gs.Registry.Get(room); ok {
			gs.attach(s, conn)
			conn.session = s
			view = s.ViewFor(playerID)
		} else {
			view = game.NewGameSession(room, gs.Registry.Defaults(), logger).ViewFor(playerID)
		}
		conn.Write(game.GameEvent{
			Type:    game.EventWelcome,
			User:    &game.EventUser{ID: playerID, Name: name},
			Payload: map[string]interface{}{"playerId": playerID, "room": room},
		})
		conn.Write(game.GameEvent{Type: game.EventGameState, State: &view})

		go conn.writePump(ctx, c)

		readErr := readGameMessages(ctx, c, gs, room, conn)
		cancel()

		if s := conn.session; s != nil && gs.detach(s, conn) {
			s.Disconnect(playerID)
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readGameMessages reads commands until the socket closes or ctx is cancelled. Normal
// closures return nil.
func readGameMessages(ctx context.Context, c *websocket.Conn, gs *GameServer, room string, conn *Connection) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			conn.log.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.WriteError("Invalid JSON format.")
			continue
		}
		if err := gs.dispatch(room, conn, msg); err != nil {
			conn.log.WithField("type", msg.Type).WithError(err).Debug("command failed")
			conn.WriteError(err.Error())
		}
	}
}

// dispatch routes one command to the session. Any error is reported to the sender only.
func (gs *GameServer) dispatch(room string, conn *Connection, msg ClientMessage) error {
	id := conn.PlayerID
	if msg.Type == "ping" {
		conn.Write(game.GameEvent{Type: game.EventPong})
		return nil
	}
	if msg.Type == "join" {
		return gs.join(room, conn, msg.Name)
	}

	s := conn.session
	if s == nil {
		return errNotJoined
	}
	switch msg.Type {
	case "start":
		return s.Start(id)
	case "restart":
		return s.Restart(id)
	case "draw":
		source := game.DrawSource(msg.Source)
		if source == "" {
			source = game.SourceDeck
		}
		return s.Draw(id, source)
	case "act":
		return s.Act(id, game.Choice(msg.Choice), slotOr(msg.Slot))
	case "resolve_power":
		req := game.PowerRequest{
			Kind:       game.PowerKind(strings.ToUpper(msg.Power)),
			MySlot:     slotOr(msg.Slot),
			TargetSlot: slotOr(msg.TargetSlot),
		}
		if msg.TargetPlayerID != "" {
			target, err := uuid.Parse(msg.TargetPlayerID)
			if err != nil {
				return fmt.Errorf("resolve_power: %w", game.ErrInvalidTarget)
			}
			req.TargetPlayerID = target
		}
		return s.ResolvePower(id, req)
	case "skip_power":
		return s.SkipPower(id)
	case "snap":
		return s.Snap(id, slotOr(msg.Slot))
	case "call_dutch":
		return s.CallDutch(id)
	case "update_rules":
		return s.UpdateRules(id, msg.Rules)
	case "leave":
		return s.Leave(id)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// join seats the connection's player in the room's live session. A session that closed
// between lookup and join is replaced by a fresh one.
func (gs *GameServer) join(room string, conn *Connection, name string) error {
	if strings.TrimSpace(name) == "" {
		name = conn.Name
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("join: %w", game.ErrNameRequired)
	}

	for attempt := 0; ; attempt++ {
		s := gs.Registry.GetOrCreate(room)
		if s != conn.session {
			if conn.session != nil {
				gs.detach(conn.session, conn)
			}
			gs.attach(s, conn)
			conn.session = s
		}
		err := s.Join(conn.PlayerID, name)
		if errors.Is(err, game.ErrSessionClosed) && attempt == 0 {
			continue
		}
		if err == nil {
			conn.Name = strings.TrimSpace(name)
		}
		return err
	}
}

// slotOr maps a missing slot to -1, which every command rejects as out of range.
func slotOr(slot *int) int {
	if slot == nil {
		return -1
	}
	return *slot
}
