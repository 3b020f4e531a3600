// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle stage of a room's session.
type State string

const (
	StateLobby   State = "LOBBY"
	StatePlaying State = "PLAYING"
	StateEnded   State = "ENDED"
)

// Choice is what the current player does with a drawn card.
type Choice string

const (
	ChoiceSwap    Choice = "swap"
	ChoiceDiscard Choice = "discard"
)

// DrawSource is the pile a drawn card came from.
type DrawSource string

const (
	SourceDeck    DrawSource = "deck"
	SourceDiscard DrawSource = "discard"
)

// PowerKind tags the pending special power. PowerNone means nothing is pending.
type PowerKind string

const (
	PowerNone PowerKind = ""
	PowerPeek PowerKind = "PEEK"
	PowerSwap PowerKind = "SWAP"
)

// PowerState is the single pending power of a session.
type PowerState struct {
	Kind      PowerKind `json:"kind"`
	Initiator uuid.UUID `json:"initiator"`
	// FromSnap marks powers armed by a snap; resolving them leaves the turn where it was.
	FromSnap bool `json:"fromSnap"`
}

// Active reports whether a power is pending.
func (p PowerState) Active() bool {
	return p.Kind != PowerNone
}

// powerFor returns the power a discarded card arms, if any.
func powerFor(card *models.Card) PowerKind {
	switch card.Rank {
	case models.RankJack:
		return PowerSwap
	case models.RankQueen:
		return PowerPeek
	}
	return PowerNone
}

// GameEventType is an enum-like type for broadcasting game actions.
type GameEventType string

const (
	EventLobbyUpdate       GameEventType = "lobby_update"        // roster and leader
	EventGameState         GameEventType = "game_state"          // per-viewer masked snapshot
	EventPrivateCardDrawn  GameEventType = "private_card_drawn"  // drawn card, to the drawer only
	EventPrivatePeekResult GameEventType = "private_peek_result" // peeked card, to the peeker only
	EventAnimate           GameEventType = "animate"             // movement hint for clients
	EventGameMessage       GameEventType = "game_message"        // human-readable status line
	EventRoundEnd          GameEventType = "round_end"           // final scores
	EventRulesUpdate       GameEventType = "rules_update"
	EventLeft              GameEventType = "left" // acknowledgement to a leaving player
	EventError             GameEventType = "error"
	EventWelcome           GameEventType = "welcome" // identity assigned to a new connection
	EventPong              GameEventType = "pong"
)

// Animation kinds carried in EventAnimate payloads.
const (
	AnimDraw         = "draw"
	AnimSwapSelf     = "swap_self"
	AnimDiscardDrawn = "discard_drawn"
	AnimSwapPlayers  = "swap_players"
	AnimSnap         = "snap"
)

// EventUser is used within GameEvent payloads for user identification.
type EventUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// EventCard is used within GameEvent payloads for card identification.
type EventCard struct {
	ID    uuid.UUID  `json:"id"`
	Rank  string     `json:"rank,omitempty"`
	Suit  string     `json:"suit,omitempty"`
	Value int        `json:"value"`
	Idx   *int       `json:"idx,omitempty"`
	User  *EventUser `json:"user,omitempty"`
}

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Card    *EventCard             `json:"card,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *View                  `json:"state,omitempty"`
}

// GameSession holds the entire state for a single room in memory.
// Every exported method takes Mu; callbacks are invoked with Mu held and must not
// call back into the session.
type GameSession struct {
	ID   uuid.UUID
	Room string

	HouseRules HouseRules

	Players     []*models.Player
	Deck        []*models.Card
	DiscardPile []*models.Card

	State              State
	CurrentPlayerIndex int
	LeaderID           uuid.UUID

	DrawnCard   *models.Card
	DrawnSource DrawSource

	Power PowerState

	DutchCallerID      uuid.UUID
	LastRoundActive    bool
	LastActivePlayerID uuid.UUID

	endTask    scheduledTask
	settleTask scheduledTask
	closed     bool

	rng         *rand.Rand
	actionIndex int
	log         *logrus.Entry

	Mu sync.Mutex

	// BroadcastFn is used to send events to everyone in the room. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	// ViewersFn lists everyone currently watching the room, seated or not. Players are
	// always sent state; spectators only when this is set.
	ViewersFn func() []uuid.UUID

	// Recorder receives the audit trail of accepted commands. Nil disables it.
	Recorder ActionRecorder

	// OnEmpty is invoked once the last player has left.
	OnEmpty func(s *GameSession)
}

// NewGameSession creates an empty session in the lobby state.
func NewGameSession(room string, rules HouseRules, logger *logrus.Logger) *GameSession {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.New()
	return &GameSession{
		ID:          id,
		Room:        room,
		HouseRules:  rules,
		Players:     []*models.Player{},
		Deck:        []*models.Card{},
		DiscardPile: []*models.Card{},
		State:       StateLobby,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		log: logger.WithFields(logrus.Fields{
			"room":       room,
			"session_id": id,
		}),
	}
}

func (s *GameSession) playerIndex(id uuid.UUID) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *GameSession) player(id uuid.UUID) *models.Player {
	if i := s.playerIndex(id); i != -1 {
		return s.Players[i]
	}
	return nil
}

func (s *GameSession) currentPlayer() *models.Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

func (s *GameSession) nameOf(id uuid.UUID) string {
	if p := s.player(id); p != nil {
		return p.Name
	}
	return "someone"
}

// reject logs a refused command and wraps its cause.
func (s *GameSession) reject(cmd string, playerID uuid.UUID, err error) error {
	s.log.WithFields(logrus.Fields{
		"cmd":    cmd,
		"player": playerID,
	}).WithError(err).Debug("command rejected")
	return fmt.Errorf("%s: %w", cmd, err)
}

func (s *GameSession) fireEvent(ev GameEvent) {
	if s.BroadcastFn != nil {
		s.BroadcastFn(ev)
	}
}

func (s *GameSession) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if s.BroadcastToPlayerFn != nil {
		s.BroadcastToPlayerFn(playerID, ev)
	}
}

func (s *GameSession) announce(format string, args ...interface{}) {
	s.fireEvent(GameEvent{
		Type:    EventGameMessage,
		Payload: map[string]interface{}{"message": fmt.Sprintf(format, args...)},
	})
}

func (s *GameSession) animate(kind string, playerID uuid.UUID, extra map[string]interface{}) {
	payload := map[string]interface{}{"kind": kind}
	for k, v := range extra {
		payload[k] = v
	}
	s.fireEvent(GameEvent{
		Type:    EventAnimate,
		User:    &EventUser{ID: playerID},
		Payload: payload,
	})
}

// broadcastState sends every viewer their own projection of the session.
func (s *GameSession) broadcastState() {
	for _, id := range s.viewers() {
		view := Project(s, id)
		s.fireEventToPlayer(id, GameEvent{Type: EventGameState, State: &view})
	}
}

// viewers returns the players followed by any spectators, each once.
func (s *GameSession) viewers() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Players))
	seen := make(map[uuid.UUID]bool, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.ID)
		seen[p.ID] = true
	}
	if s.ViewersFn == nil {
		return ids
	}
	for _, id := range s.ViewersFn() {
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	return ids
}

// scheduleBroadcast re-broadcasts state once ms have passed. Pending broadcasts are
// coalesced into one that fires at the latest requested deadline.
func (s *GameSession) scheduleBroadcast(ms int) {
	s.settleTask.extend(&s.Mu, millis(ms), s.broadcastState)
}

func (s *GameSession) broadcastLobby() {
	names := make([]string, len(s.Players))
	for i, p := range s.Players {
		names[i] = p.Name
	}
	s.fireEvent(GameEvent{
		Type: EventLobbyUpdate,
		Payload: map[string]interface{}{
			"players":  names,
			"leaderId": s.LeaderID,
		},
	})
}

func cardEvent(c *models.Card, idx int, owner uuid.UUID) *EventCard {
	ev := &EventCard{
		ID:    c.ID,
		Rank:  c.Rank,
		Suit:  c.Suit,
		Value: c.Value,
	}
	if idx >= 0 {
		i := idx
		ev.Idx = &i
	}
	if owner != uuid.Nil {
		ev.User = &EventUser{ID: owner}
	}
	return ev
}
