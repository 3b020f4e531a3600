package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/game"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConn(t *testing.T, id uuid.UUID) (*Connection, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger, _ := test.NewNullLogger()
	return newConnection(id, "", cancel, logrus.NewEntry(logger)), ctx
}

func TestAttachReplacesOlderConnection(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gs := NewGameServer(game.NewRegistry(game.DefaultHouseRules(), logger, nil), logger)
	s := gs.Registry.GetOrCreate("hub")

	id := uuid.New()
	first, firstCtx := testConn(t, id)
	second, secondCtx := testConn(t, id)

	gs.attach(s, first)
	gs.attach(s, second)
	assert.Error(t, firstCtx.Err(), "the older socket is cancelled")
	assert.NoError(t, secondCtx.Err())
	assert.Equal(t, 1, gs.connections(s))

	assert.False(t, gs.detach(s, first), "a replaced connection must not disconnect the player")
	assert.True(t, gs.detach(s, second))
	assert.Equal(t, 0, gs.connections(s))
}

func TestSessionEventsReachAttachedConnections(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gs := NewGameServer(game.NewRegistry(game.DefaultHouseRules(), logger, nil), logger)
	s := gs.Registry.GetOrCreate("fanout")

	a, b := uuid.New(), uuid.New()
	ca, _ := testConn(t, a)
	cb, _ := testConn(t, b)
	gs.attach(s, ca)
	gs.attach(s, cb)

	require.NoError(t, s.Join(a, "alice"))
	require.Len(t, ca.OutChan, 1)
	require.Len(t, cb.OutChan, 1, "spectators see lobby updates too")

	require.NoError(t, s.Leave(a))
	var types []game.GameEventType
	for len(ca.OutChan) > 0 {
		types = append(types, (<-ca.OutChan).Type)
	}
	assert.Contains(t, types, game.EventLeft)
	for len(cb.OutChan) > 0 {
		assert.NotEqual(t, game.EventLeft, (<-cb.OutChan).Type, "acknowledgements are private")
	}
}

func TestSlowConnectionIsDropped(t *testing.T) {
	c, ctx := testConn(t, uuid.New())
	for i := 0; i < outboxSize; i++ {
		c.Write(game.GameEvent{Type: game.EventPong})
	}
	require.NoError(t, ctx.Err())

	c.WriteError("one too many")
	assert.Error(t, ctx.Err())
	assert.Len(t, c.OutChan, outboxSize)
}

func TestSpectatorsReceiveMaskedState(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gs := NewGameServer(game.NewRegistry(game.DefaultHouseRules(), logger, nil), logger)
	s := gs.Registry.GetOrCreate("gallery")

	a, b, watcher := uuid.New(), uuid.New(), uuid.New()
	ca, _ := testConn(t, a)
	cw, _ := testConn(t, watcher)
	gs.attach(s, ca)
	gs.attach(s, cw)

	require.NoError(t, s.Join(a, "alice"))
	require.NoError(t, s.Join(b, "bob"))
	require.NoError(t, s.Start(a))

	var states []game.View
	for len(cw.OutChan) > 0 {
		if ev := <-cw.OutChan; ev.Type == game.EventGameState {
			require.NotNil(t, ev.State)
			states = append(states, *ev.State)
		}
	}
	require.Len(t, states, 1, "the spectator gets the dealt round")
	view := states[0]
	assert.Equal(t, game.StatePlaying, view.State)
	require.Len(t, view.Players, 2)
	for _, p := range view.Players {
		for _, c := range p.Hand {
			assert.True(t, c.Back, "a spectator sees no card faces")
		}
	}
	assert.Nil(t, view.DrawnCard)
}
