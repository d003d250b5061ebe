package session

import (
	"sync"

	"github.com/kjgarza/chickadee/internal/eventstore"
	"github.com/kjgarza/chickadee/internal/events"
	"github.com/kjgarza/chickadee/internal/metrics"
	"github.com/kjgarza/chickadee/internal/timeline"
	"github.com/kjgarza/chickadee/internal/timerstate"
)

// Manager owns one session per recipe. All sessions share the same timer
// store, history and publisher; their tick loops are independent.
type Manager struct {
	store     *timerstate.Store
	history   eventstore.Store
	publisher events.Publisher
	recorder  metrics.Recorder
	opts      Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. The Store field of opts is required.
func NewManager(opts Options) *Manager {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	return &Manager{
		store:     opts.Store,
		history:   opts.History,
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Store exposes the shared timer state store.
func (m *Manager) Store() *timerstate.Store { return m.store }

// History exposes the shared transition history, possibly nil.
func (m *Manager) History() eventstore.Store { return m.history }

// GetOrCreate returns the recipe's session, creating it over the given
// timeline on first use.
func (m *Manager) GetOrCreate(recipeID string, items []timeline.Item) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[recipeID]; ok {
		return s
	}
	s := New(recipeID, items, m.opts)
	m.sessions[recipeID] = s
	m.recorder.SetActiveSessions(len(m.sessions))
	return s
}

// Get returns the recipe's session if one exists.
func (m *Manager) Get(recipeID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[recipeID]
	return s, ok
}

// Remove stops and forgets the recipe's session. The persisted timer state
// is left alone; only the in-process driver goes away.
func (m *Manager) Remove(recipeID string) {
	m.mu.Lock()
	s, ok := m.sessions[recipeID]
	delete(m.sessions, recipeID)
	m.recorder.SetActiveSessions(len(m.sessions))
	m.mu.Unlock()

	if ok {
		s.StopTicking()
	}
}

// StopAll halts every session's tick loop.
func (m *Manager) StopAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.StopTicking()
	}
}
