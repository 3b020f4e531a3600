// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanQueue struct {
	ch chan cache.GameActionRecord
}

func (q *chanQueue) Pop(ctx context.Context) (cache.GameActionRecord, bool, error) {
	select {
	case <-ctx.Done():
		return cache.GameActionRecord{}, false, ctx.Err()
	case rec := <-q.ch:
		return rec, true, nil
	case <-time.After(10 * time.Millisecond):
		return cache.GameActionRecord{}, false, nil
	}
}

type memSink struct {
	mu       sync.Mutex
	batches  [][]cache.GameActionRecord
	inactive []uuid.UUID
	failNext bool
}

func (m *memSink) InsertActions(_ context.Context, recs []cache.GameActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("db down")
	}
	m.batches = append(m.batches, append([]cache.GameActionRecord(nil), recs...))
	return nil
}

func (m *memSink) MarkInactive(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inactive = append(m.inactive, id)
	return nil
}

func (m *memSink) stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func record(game uuid.UUID, idx int) cache.GameActionRecord {
	return cache.GameActionRecord{GameID: game, ActionIndex: idx, ActionType: "action_draw"}
}

func TestAddFlushesFullBatch(t *testing.T) {
	sink := &memSink{}
	svc := New(&chanQueue{}, sink, Options{BatchSize: 3}, nil)
	ctx := context.Background()
	game := uuid.New()

	svc.Add(ctx, record(game, 1))
	svc.Add(ctx, record(game, 2))
	assert.Equal(t, 2, svc.Pending())
	assert.Zero(t, sink.stored())

	svc.Add(ctx, record(game, 3))
	assert.Zero(t, svc.Pending())
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 3)
}

func TestFailedFlushIsRetried(t *testing.T) {
	sink := &memSink{failNext: true}
	svc := New(&chanQueue{}, sink, Options{BatchSize: 10}, nil)
	ctx := context.Background()

	svc.Add(ctx, record(uuid.New(), 1))
	svc.Flush(ctx)
	assert.Equal(t, 1, svc.Pending(), "records survive a failed write")

	svc.Flush(ctx)
	assert.Zero(t, svc.Pending())
	assert.Equal(t, 1, sink.stored())
}

func TestRunDrainsQueueAndFlushesOnShutdown(t *testing.T) {
	q := &chanQueue{ch: make(chan cache.GameActionRecord, 10)}
	sink := &memSink{}
	svc := New(q, sink, Options{BatchSize: 100, FlushInterval: time.Hour}, nil)

	game := uuid.New()
	for i := 1; i <= 5; i++ {
		q.ch <- record(game, i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.Pending() == 5 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 5, sink.stored())
}

func TestSweepMarksIdleGames(t *testing.T) {
	sink := &memSink{}
	svc := New(&chanQueue{}, sink, Options{Inactivity: time.Minute}, nil)
	now := time.Now()
	svc.now = func() time.Time { return now }

	idle, busy := uuid.New(), uuid.New()
	svc.lastActivity.Store(idle, now.Add(-2*time.Minute))
	svc.lastActivity.Store(busy, now.Add(-10*time.Second))

	svc.Sweep(context.Background())
	assert.Equal(t, []uuid.UUID{idle}, sink.inactive)

	_, tracked := svc.lastActivity.Load(idle)
	assert.False(t, tracked)
	_, tracked = svc.lastActivity.Load(busy)
	assert.True(t, tracked)
}
