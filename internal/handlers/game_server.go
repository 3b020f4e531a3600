// internal/handlers/game_server.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/game"
	"github.com/sirupsen/logrus"
)

// GameServer fans session events out to the WebSocket connections watching each room.
//
// Session broadcasts arrive with the session lock held, so the hub lock is always taken
// after a session lock and never the other way round.
type GameServer struct {
	Registry *game.Registry
	logger   *logrus.Logger

	mu    sync.Mutex
	rooms map[*game.GameSession]map[uuid.UUID]*Connection
}

// NewGameServer wires broadcast functions into every session reg creates from now on.
func NewGameServer(reg *game.Registry, logger *logrus.Logger) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	gs := &GameServer{
		Registry: reg,
		logger:   logger,
		rooms:    make(map[*game.GameSession]map[uuid.UUID]*Connection),
	}
	reg.OnCreate = func(s *game.GameSession) {
		s.BroadcastFn = func(ev game.GameEvent) {
			gs.broadcast(s, ev)
		}
		s.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.GameEvent) {
			gs.sendTo(s, playerID, ev)
		}
		s.ViewersFn = func() []uuid.UUID {
			return gs.viewers(s)
		}
	}
	return gs
}

func (gs *GameServer) broadcast(s *game.GameSession, ev game.GameEvent) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, c := range gs.rooms[s] {
		c.Write(ev)
	}
}

func (gs *GameServer) sendTo(s *game.GameSession, playerID uuid.UUID, ev game.GameEvent) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if c, ok := gs.rooms[s][playerID]; ok {
		c.Write(ev)
	}
}

// viewers lists the players whose connections follow s.
func (gs *GameServer) viewers(s *game.GameSession) []uuid.UUID {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(gs.rooms[s]))
	for id := range gs.rooms[s] {
		ids = append(ids, id)
	}
	return ids
}

// attach registers conn as the receiver of s's events for its player. An older
// connection for the same player is cancelled.
func (gs *GameServer) attach(s *game.GameSession, conn *Connection) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	room, ok := gs.rooms[s]
	if !ok {
		room = make(map[uuid.UUID]*Connection)
		gs.rooms[s] = room
	}
	if old, ok := room[conn.PlayerID]; ok && old != conn {
		gs.logger.WithFields(logrus.Fields{"room": s.Room, "player": conn.PlayerID}).Info("connection replaced")
		old.Cancel()
	}
	room[conn.PlayerID] = conn
}

// detach unregisters conn. It reports false when conn had already been replaced, in
// which case the player is still connected elsewhere.
func (gs *GameServer) detach(s *game.GameSession, conn *Connection) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	room := gs.rooms[s]
	if room[conn.PlayerID] != conn {
		return false
	}
	delete(room, conn.PlayerID)
	if len(room) == 0 {
		delete(gs.rooms, s)
	}
	return true
}

// connections returns how many connections watch s.
func (gs *GameServer) connections(s *game.GameSession) int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.rooms[s])
}
