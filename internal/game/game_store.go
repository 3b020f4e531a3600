package game

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry owns the live sessions, one per room name. A session is created on first use
// and removed when its last player leaves.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*GameSession

	defaults HouseRules
	logger   *logrus.Logger
	recorder ActionRecorder

	// OnCreate runs for every new session before it becomes reachable, under the registry
	// lock. Transports use it to attach broadcast functions.
	OnCreate func(s *GameSession)
}

// NewRegistry builds an empty registry. recorder may be nil.
func NewRegistry(defaults HouseRules, logger *logrus.Logger, recorder ActionRecorder) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		sessions: make(map[string]*GameSession),
		defaults: defaults,
		logger:   logger,
		recorder: recorder,
	}
}

// GetOrCreate returns the room's session, creating it in the lobby state if needed.
func (r *Registry) GetOrCreate(room string) *GameSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[room]; ok {
		return s
	}
	s := NewGameSession(room, r.defaults, r.logger)
	if r.recorder != nil {
		s.Recorder = r.recorder
	}
	s.OnEmpty = r.Destroy
	if r.OnCreate != nil {
		r.OnCreate(s)
	}
	r.sessions[room] = s
	r.logger.WithFields(logrus.Fields{"room": room, "session_id": s.ID}).Info("session created")
	return s
}

// Get returns the room's session if it exists.
func (r *Registry) Get(room string) (*GameSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[room]
	return s, ok
}

// Destroy forgets s. A newer session registered under the same room is left alone.
func (r *Registry) Destroy(s *GameSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.Room]; ok && cur == s {
		delete(r.sessions, s.Room)
		r.logger.WithFields(logrus.Fields{"room": s.Room, "session_id": s.ID}).Info("session destroyed")
	}
}

// List summarises every session, sorted by room name.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	sessions := make([]*GameSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	// Session locks are taken only after the registry lock is released.
	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sortSummaries(out)
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Defaults returns the house rules new sessions start with.
func (r *Registry) Defaults() HouseRules {
	return r.defaults
}
