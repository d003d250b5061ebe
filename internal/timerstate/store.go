// Package timerstate persists per-recipe cooking timer state and implements
// the Stopped/Running/Paused control state machine over it.
//
// All recipes share one storage slot: the backend holds a single JSON object
// mapping recipe id to TimerState. Reads tolerate missing or corrupted
// storage by degrading to "no state"; a recipe with no entry has simply
// never been started.
package timerstate

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// TimerState is the persisted timer record for one recipe.
type TimerState struct {
	// StartTime is the unix-millisecond timestamp the timer was started
	// at. Resume shifts it forward by the pause duration so elapsed time
	// is always now-StartTime with no separate accumulator.
	StartTime int64 `json:"startTime"`
	IsPaused  bool  `json:"isPaused,omitempty"`
	// PausedAt is set iff IsPaused.
	PausedAt      int64  `json:"pausedAt,omitempty"`
	ServingSize   int    `json:"servingSize,omitempty"`
	CurrentStepID string `json:"currentStepId,omitempty"`
}

// Phase is the user-facing timer control state.
type Phase string

const (
	PhaseStopped Phase = "stopped"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
)

// Store multiplexes one TimerState per recipe id over a single Backend slot.
// Safe for concurrent use within one process; concurrent writers from other
// processes race last-writer-wins, which mirrors the multi-tab behavior of
// the storage this models.
type Store struct {
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
}

// New creates a store over the given backend.
func New(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// WithClock overrides the time source. Tests use this to freeze time.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nowMs() int64 { return s.now().UnixMilli() }

// load reads the full recipe-id mapping. Missing or corrupted storage
// degrades to an empty mapping rather than surfacing an error; stored timer
// state is never worth failing a caller over.
func (s *Store) load() map[string]TimerState {
	states := make(map[string]TimerState)
	data, ok, err := s.backend.Load()
	if err != nil {
		slog.Warn("Timer state unreadable, treating as empty", "error", err)
		return states
	}
	if !ok {
		return states
	}
	if err := json.Unmarshal(data, &states); err != nil {
		slog.Warn("Timer state corrupted, treating as empty", "error", err)
		return make(map[string]TimerState)
	}
	return states
}

func (s *Store) save(states map[string]TimerState) error {
	data, err := json.Marshal(states)
	if err != nil {
		return err
	}
	return s.backend.Save(data)
}

// Get returns the stored state for a recipe, or ok=false when the recipe was
// never started (or its state was reset or unreadable).
func (s *Store) Get(recipeID string) (TimerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.load()[recipeID]
	return st, ok
}

// Set overwrites the recipe's whole state and persists immediately. The
// outer mapping is read-modify-written since the backend only holds one
// value.
func (s *Store) Set(recipeID string, state TimerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.load()
	states[recipeID] = state
	return s.save(states)
}

// Clear removes only the given recipe's entry; other recipes' states are
// untouched.
func (s *Store) Clear(recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.load()
	if _, ok := states[recipeID]; !ok {
		return nil
	}
	delete(states, recipeID)
	return s.save(states)
}

// Recipes returns the ids that currently have stored timer state, in no
// particular order.
func (s *Store) Recipes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.load()
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	return ids
}

// ElapsedMs is the single time source all countdown math derives from.
// Returns 0 for a recipe with no state, the frozen pause offset while
// paused, and wall-clock elapsed while running.
func (s *Store) ElapsedMs(recipeID string) int64 {
	st, ok := s.Get(recipeID)
	if !ok || st.StartTime == 0 {
		return 0
	}
	if st.IsPaused {
		return st.PausedAt - st.StartTime
	}
	return s.nowMs() - st.StartTime
}
