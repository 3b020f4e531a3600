// internal/handlers/connection.go
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	outboxSize   = 64
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// Connection is one player's WebSocket. Events are queued on OutChan and written by
// writePump; nothing else writes to the socket.
type Connection struct {
	PlayerID uuid.UUID
	Name     string
	OutChan  chan game.GameEvent

	// session is the room session this connection currently follows. Only the read loop
	// touches it.
	session *game.GameSession

	cancel context.CancelFunc
	log    *logrus.Entry
}

func newConnection(playerID uuid.UUID, name string, cancel context.CancelFunc, log *logrus.Entry) *Connection {
	return &Connection{
		PlayerID: playerID,
		Name:     name,
		OutChan:  make(chan game.GameEvent, outboxSize),
		cancel:   cancel,
		log:      log,
	}
}

// Write queues ev without blocking. A client too slow to drain its queue is dropped.
func (c *Connection) Write(ev game.GameEvent) {
	select {
	case c.OutChan <- ev:
	default:
		c.log.WithField("event", ev.Type).Warn("outbound queue full, dropping connection")
		c.cancel()
	}
}

// WriteError queues an error event for this connection only.
func (c *Connection) WriteError(msg string) {
	c.Write(game.GameEvent{
		Type:    game.EventError,
		Payload: map[string]interface{}{"message": msg},
	})
}

// Cancel stops the connection's read loop and write pump.
func (c *Connection) Cancel() {
	c.cancel()
}

// writePump drains OutChan onto the socket and keeps the connection alive with pings.
func (c *Connection) writePump(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				c.log.WithError(err).WithField("event", ev.Type).Error("failed to marshal event")
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("write failed")
				c.cancel()
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := ws.Ping(pctx)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("ping failed")
				c.cancel()
				return
			}
		}
	}
}
