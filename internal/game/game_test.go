// internal/game/game_test.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent               // Events sent to everyone
	playerEvents map[uuid.UUID][]GameEvent // Events sent to specific players
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{
		playerEvents: make(map[uuid.UUID][]GameEvent),
	}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(playerID uuid.UUID, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[playerID] = append(mb.playerEvents[playerID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = []GameEvent{}
	mb.playerEvents = make(map[uuid.UUID][]GameEvent)
}

func (mb *mockBroadcaster) getLastPlayerEvent(playerID uuid.UUID) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events, ok := mb.playerEvents[playerID]
	if !ok || len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// eventsOfType returns public events of the given type in order.
func (mb *mockBroadcaster) eventsOfType(t GameEventType) []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []GameEvent
	for _, ev := range mb.allEvents {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// playerEventsOfType returns private events of the given type sent to playerID.
func (mb *mockBroadcaster) playerEventsOfType(playerID uuid.UUID, t GameEventType) []GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	var out []GameEvent
	for _, ev := range mb.playerEvents[playerID] {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// instantRules returns the default table with every delay removed so deferred work runs inline.
func instantRules() HouseRules {
	r := DefaultHouseRules()
	r.EndGraceMs = 0
	r.SettleDelayMs = 0
	r.SwapSettleDelayMs = 0
	r.PeekSettleDelayMs = 0
	return r
}

// setupTestSession seats numPlayers players and, with two or more, starts the round.
func setupTestSession(t *testing.T, numPlayers int, rules *HouseRules) (*GameSession, []uuid.UUID, *mockBroadcaster) {
	t.Helper()
	r := instantRules()
	if rules != nil {
		r = *rules
	}
	s := NewGameSession("test-room", r, nil)
	s.rng = rand.New(rand.NewSource(7))

	mb := newMockBroadcaster()
	s.BroadcastFn = mb.broadcastFn
	s.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	ids := make([]uuid.UUID, numPlayers)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, s.Join(ids[i], fmt.Sprintf("player%d", i+1)))
	}
	if numPlayers >= 2 {
		require.NoError(t, s.Start(ids[0]))
		require.Equal(t, StatePlaying, s.State)
	}

	mb.clear()
	return s, ids, mb
}

// parseCard splits a label such as "10♥" or "Joker" into suit and rank.
func parseCard(label string) (suit, rank string) {
	if label == models.RankJoker {
		return models.SuitJoker, models.RankJoker
	}
	r, size := utf8.DecodeLastRuneInString(label)
	return string(r), label[:len(label)-size]
}

// rigRound replaces the dealt round with chosen cards while keeping the full 54-card set in
// play: hands[i] goes to player i, top becomes the only discard, deckTop are the next cards
// drawn in order, and everything else stays in the deck below them. Slots 0 and 1 are known.
func rigRound(t *testing.T, s *GameSession, top string, deckTop []string, hands ...[]string) {
	t.Helper()
	s.Mu.Lock()
	defer s.Mu.Unlock()
	require.Len(t, hands, len(s.Players), "one hand per player")

	pool := newDeck(s.rng)
	take := func(label string) *models.Card {
		suit, rank := parseCard(label)
		for i, c := range pool {
			if c.Suit == suit && c.Rank == rank {
				pool = append(pool[:i], pool[i+1:]...)
				return c
			}
		}
		t.Fatalf("card %s is not available", label)
		return nil
	}

	for i, p := range s.Players {
		p.Hand = []*models.Card{}
		p.Known = nil
		p.RoundScore = nil
		for _, label := range hands[i] {
			p.Hand = append(p.Hand, take(label))
		}
		p.MarkKnown(0)
		p.MarkKnown(1)
	}
	s.DiscardPile = []*models.Card{take(top)}

	next := make([]*models.Card, len(deckTop))
	for i, label := range deckTop {
		next[i] = take(label)
	}
	for i := len(next) - 1; i >= 0; i-- {
		pool = append(pool, next[i])
	}
	s.Deck = pool

	s.endTask.cancel()
	s.settleTask.cancel()
	s.State = StatePlaying
	s.CurrentPlayerIndex = 0
	s.DrawnCard = nil
	s.DrawnSource = ""
	s.Power = PowerState{}
	s.DutchCallerID = uuid.Nil
	s.LastRoundActive = false
	s.LastActivePlayerID = uuid.Nil
}

// cardCount totals every card the session holds.
func cardCount(s *GameSession) int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	n := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	if s.DrawnCard != nil {
		n++
	}
	return n
}

func playerByID(s *GameSession, id uuid.UUID) *models.Player {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.player(id)
}

// playTurn draws from the deck and discards the drawn card.
func playTurn(t *testing.T, s *GameSession, id uuid.UUID) {
	t.Helper()
	require.NoError(t, s.Draw(id, SourceDeck))
	require.NoError(t, s.Act(id, ChoiceDiscard, 0))
}

func TestStartDealsHands(t *testing.T) {
	s, ids, _ := setupTestSession(t, 3, nil)

	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Equal(t, ids[0], s.LeaderID)
	assert.Len(t, s.DiscardPile, 1)
	assert.Len(t, s.Deck, DeckSize-1-3*4)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, 4)
		assert.Equal(t, []int{0, 1}, p.Known)
		assert.Nil(t, p.RoundScore)
	}
	assert.Equal(t, DeckSize, cardCount(s))
}

func TestStartValidation(t *testing.T) {
	s, ids, _ := setupTestSession(t, 2, nil)
	require.ErrorIs(t, s.Start(ids[0]), ErrAlreadyStarted)

	lone := NewGameSession("solo", instantRules(), nil)
	a := uuid.New()
	require.NoError(t, lone.Join(a, "alice"))
	require.ErrorIs(t, lone.Start(a), ErrNotEnoughPlayers)

	b := uuid.New()
	require.NoError(t, lone.Join(b, "bob"))
	require.ErrorIs(t, lone.Start(b), ErrNotLeader)
	require.NoError(t, lone.Start(a))
}

// TestBasicDrawDiscard tests the standard draw->discard flow.
func TestBasicDrawDiscard(t *testing.T) {
	s, ids, mb := setupTestSession(t, 2, nil)
	rigRound(t, s, "4♠", []string{"7♣"}, []string{"2♠", "3♠", "5♠", "6♠"}, []string{"2♥", "3♥", "5♥", "6♥"})
	a, b := ids[0], ids[1]

	require.ErrorIs(t, s.Draw(b, SourceDeck), ErrNotYourTurn)
	require.ErrorIs(t, s.Act(a, ChoiceDiscard, 0), ErrNothingDrawn)

	require.NoError(t, s.Draw(a, SourceDeck))
	require.NotNil(t, s.DrawnCard)
	assert.Equal(t, "7", s.DrawnCard.Rank)
	require.ErrorIs(t, s.Draw(a, SourceDeck), ErrAlreadyDrawn)

	drawn := mb.playerEventsOfType(a, EventPrivateCardDrawn)
	require.Len(t, drawn, 1)
	assert.Equal(t, "7", drawn[0].Card.Rank)
	assert.Empty(t, mb.playerEventsOfType(b, EventPrivateCardDrawn), "only the drawer sees the card")
	require.Len(t, mb.eventsOfType(EventAnimate), 1)

	require.NoError(t, s.Act(a, ChoiceDiscard, 0))
	assert.Nil(t, s.DrawnCard)
	assert.Equal(t, "7", s.topDiscard().Rank)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, a, s.LastActivePlayerID)
	assert.Equal(t, DeckSize, cardCount(s))
}

func TestActSwapMarksSlotKnown(t *testing.T) {
	s, ids, _ := setupTestSession(t, 2, nil)
	rigRound(t, s, "4♠", []string{"7♣"}, []string{"2♠", "3♠", "5♠", "6♠"}, []string{"2♥", "3♥", "5♥", "6♥"})
	a := ids[0]

	require.NoError(t, s.Draw(a, SourceDeck))
	require.ErrorIs(t, s.Act(a, ChoiceSwap, 4), ErrInvalidSlot)
	require.ErrorIs(t, s.Act(a, Choice("burn"), 0), ErrUnknownChoice)
	require.NotNil(t, s.DrawnCard, "rejected acts leave the drawn card in place")

	require.NoError(t, s.Act(a, ChoiceSwap, 3))
	p := playerByID(s, a)
	assert.Equal(t, "7", p.Hand[3].Rank)
	assert.Equal(t, []int{0, 1, 3}, p.Known)
	assert.Equal(t, "6", s.topDiscard().Rank)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, DeckSize, cardCount(s))
}

func TestDrawFromDiscardCannotBeDiscarded(t *testing.T) {
	rules := instantRules()
	s, ids, _ := setupTestSession(t, 2, &rules)
	rigRound(t, s, "4♠", nil, []string{"2♠", "3♠", "5♠", "6♠"}, []string{"2♥", "3♥", "5♥", "6♥"})
	a := ids[0]

	require.ErrorIs(t, s.Draw(a, SourceDiscard), ErrDrawSource, "discard draws are off by default")

	s.HouseRules.AllowDrawFromDiscardPile = true
	require.ErrorIs(t, s.Draw(a, SourceDiscard), ErrDrawSource, "the last discard cannot be taken")

	s.Mu.Lock()
	s.DiscardPile = append([]*models.Card{s.popDeck()}, s.DiscardPile...)
	s.Mu.Unlock()

	require.NoError(t, s.Draw(a, SourceDiscard))
	assert.Equal(t, SourceDiscard, s.DrawnSource)
	require.ErrorIs(t, s.Act(a, ChoiceDiscard, 0), ErrReDiscard)
	require.NoError(t, s.Act(a, ChoiceSwap, 0))
	assert.Equal(t, "4", playerByID(s, a).Hand[0].Rank)
	assert.Equal(t, DeckSize, cardCount(s))
}

func TestSkipPowerAdvancesTurn(t *testing.T) {
	s, ids, mb := setupTestSession(t, 2, nil)
	rigRound(t, s, "4♠", []string{"Q♣"}, []string{"2♠", "3♠", "5♠", "6♠"}, []string{"2♥", "3♥", "5♥", "6♥"})
	a, b := ids[0], ids[1]

	playTurn(t, s, a)
	require.Equal(t, PowerPeek, s.Power.Kind)
	assert.Equal(t, 0, s.CurrentPlayerIndex, "turn waits for the power")
	require.ErrorIs(t, s.Draw(a, SourceDeck), ErrPowerPending)

	require.ErrorIs(t, s.SkipPower(b), ErrNotInitiator)
	require.NoError(t, s.SkipPower(a))
	assert.False(t, s.Power.Active())
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	require.ErrorIs(t, s.SkipPower(a), ErrNoPower)
	assert.NotEmpty(t, mb.eventsOfType(EventGameMessage))
}
