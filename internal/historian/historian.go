// internal/historian/historian.go
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/cache"
	"github.com/sirupsen/logrus"
)

// Queue yields action records. Pop returns ok=false when it timed out with nothing to give.
type Queue interface {
	Pop(ctx context.Context) (cache.GameActionRecord, bool, error)
}

// Sink persists batches of records and closes idle games.
type Sink interface {
	InsertActions(ctx context.Context, records []cache.GameActionRecord) error
	MarkInactive(ctx context.Context, gameID uuid.UUID) error
}

// Options tune the service. Zero values take the defaults.
type Options struct {
	BatchSize     int           // flush once this many records are buffered (20)
	FlushInterval time.Duration // flush at least this often (500ms)
	Inactivity    time.Duration // close games idle this long (10m)
	SweepInterval time.Duration // how often to look for idle games (1m)
}

// Service drains the action queue into the sink in batches.
type Service struct {
	queue  Queue
	sink   Sink
	opts   Options
	logger *logrus.Logger

	batchMu sync.Mutex
	batch   []cache.GameActionRecord

	lastActivity sync.Map // map[uuid.UUID]time.Time
	now          func() time.Time
}

// New builds a service. logger may be nil.
func New(queue Queue, sink Sink, opts Options, logger *logrus.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		queue:  queue,
		sink:   sink,
		opts:   opts,
		logger: logger,
		batch:  make([]cache.GameActionRecord, 0, opts.BatchSize),
		now:    time.Now,
	}
}

// Run consumes the queue until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.sweepLoop(ctx)
	}()

	s.logger.Info("historian started")
	s.readLoop(ctx)
	wg.Wait()

	// ctx is done; the final flush gets a fresh deadline.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian stopped")
	return nil
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		rec, ok, err := s.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.WithError(err).Error("queue pop failed")
			// Back off briefly so a dead connection does not spin.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}
		s.lastActivity.Store(rec.GameID, s.now())
		s.Add(ctx, rec)
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Add buffers one record, flushing when the batch is full.
func (s *Service) Add(ctx context.Context, rec cache.GameActionRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the buffered batch. A failed batch is put back in front of newer records so
// the next flush retries it.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if len(s.batch) == 0 {
		return
	}
	pending := make([]cache.GameActionRecord, len(s.batch))
	copy(pending, s.batch)

	if err := s.sink.InsertActions(ctx, pending); err != nil {
		s.logger.WithError(err).WithField("count", len(pending)).Error("flush failed")
		return
	}
	s.batch = s.batch[:0]
	s.logger.WithField("count", len(pending)).Debug("flushed actions")
}

// Sweep closes every game whose last action is older than the inactivity threshold.
func (s *Service) Sweep(ctx context.Context) {
	now := s.now()
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		if err := s.sink.MarkInactive(ctx, gameID); err != nil {
			s.logger.WithError(err).WithField("game_id", gameID).Warn("failed to mark game inactive")
			return true
		}
		s.lastActivity.Delete(gameID)
		s.logger.WithField("game_id", gameID).Info("game marked inactive")
		return true
	})
}

// Pending reports how many records are buffered.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
