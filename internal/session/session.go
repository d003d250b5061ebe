// Package session drives one recipe's timer: it owns the periodic tick that
// recomputes display state from elapsed time, and funnels control operations
// through the persisted timer state machine.
//
// A Session is an explicit object passed to whoever needs it; there is no
// package-level "current recipe". Multiple sessions for different recipes
// run side by side without clobbering each other.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kjgarza/chickadee/internal/eventstore"
	"github.com/kjgarza/chickadee/internal/events"
	"github.com/kjgarza/chickadee/internal/logfields"
	"github.com/kjgarza/chickadee/internal/metrics"
	"github.com/kjgarza/chickadee/internal/timeline"
	"github.com/kjgarza/chickadee/internal/timerstate"
)

// Options carries the collaborators a session needs. History, Publisher and
// Recorder are optional; Interval defaults to one second.
type Options struct {
	Store     *timerstate.Store
	History   eventstore.Store
	Publisher events.Publisher
	Recorder  metrics.Recorder
	Interval  time.Duration
	// OnDisplay receives the recomputed display state on every tick and
	// every explicit Recompute. This is the render adapter seam: the
	// session computes, the sink mutates whatever surface it owns.
	OnDisplay func(timeline.DisplayState)
}

// Session drives the timer for a single recipe.
type Session struct {
	ID       string
	RecipeID string

	items     []timeline.Item
	store     *timerstate.Store
	history   eventstore.Store
	publisher events.Publisher
	recorder  metrics.Recorder
	interval  time.Duration
	onDisplay func(timeline.DisplayState)

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// New creates a session over a recipe's timeline.
func New(recipeID string, items []timeline.Item, opts Options) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		items:     items,
		store:     opts.Store,
		history:   opts.History,
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		interval:  opts.Interval,
		onDisplay: opts.OnDisplay,
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	if s.interval <= 0 {
		s.interval = time.Second
	}
	return s
}

// Start begins the recipe's timer. Starting an already-running recipe keeps
// the existing state.
func (s *Session) Start(ctx context.Context, servingSize int) error {
	if _, err := s.store.Start(s.RecipeID, servingSize); err != nil {
		return err
	}
	s.recordTransition(ctx, "start", eventstore.EventStarted)
	return nil
}

// Pause freezes the timer; a no-op unless running.
func (s *Session) Pause(ctx context.Context) error {
	before := s.store.Phase(s.RecipeID)
	if _, err := s.store.Pause(s.RecipeID); err != nil {
		return err
	}
	if before == timerstate.PhaseRunning {
		s.recordTransition(ctx, "pause", eventstore.EventPaused)
	}
	return nil
}

// Resume unfreezes the timer; a no-op unless paused.
func (s *Session) Resume(ctx context.Context) error {
	before := s.store.Phase(s.RecipeID)
	if _, err := s.store.Resume(s.RecipeID); err != nil {
		return err
	}
	if before == timerstate.PhasePaused {
		s.recordTransition(ctx, "resume", eventstore.EventResumed)
	}
	return nil
}

// Reset clears the recipe's timer state entirely.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.store.Reset(s.RecipeID); err != nil {
		return err
	}
	s.recordTransition(ctx, "reset", eventstore.EventReset)
	return nil
}

// Phase reports the current control state.
func (s *Session) Phase() timerstate.Phase {
	return s.store.Phase(s.RecipeID)
}

// ElapsedMs reports the current elapsed time.
func (s *Session) ElapsedMs() int64 {
	return s.store.ElapsedMs(s.RecipeID)
}

// Recompute derives display state from the current elapsed time, on demand.
// Visibility changes call this directly: elapsed time comes from absolute
// timestamps, so correctness never depends on ticks having fired while the
// page was hidden.
func (s *Session) Recompute() timeline.DisplayState {
	started := time.Now()
	state := timeline.ComputeDisplayState(s.items, s.ElapsedMs())
	s.recorder.ObserveTickDuration(time.Since(started))
	if s.onDisplay != nil {
		s.onDisplay(state)
	}
	return state
}

// StartTicking launches the periodic recompute. A second call while ticking
// is a no-op.
func (s *Session) StartTicking(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})

	go func(stop, stopped chan struct{}) {
		defer close(stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				s.Recompute()
			}
		}
	}(s.stop, s.stopped)

	slog.Debug("Session ticking", logfields.Session(s.ID), logfields.Recipe(s.RecipeID))
}

// StopTicking halts the periodic recompute and waits for the tick goroutine
// to exit. Stopping an already-stopped session is harmless.
func (s *Session) StopTicking() {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}

func (s *Session) recordTransition(ctx context.Context, transition, eventType string) {
	s.recorder.IncTimerTransition(transition)

	phase := s.store.Phase(s.RecipeID)
	elapsed := s.store.ElapsedMs(s.RecipeID)

	slog.Info("Timer transition",
		logfields.Recipe(s.RecipeID),
		logfields.Transition(transition),
		logfields.Phase(string(phase)))

	if s.history != nil {
		if err := s.history.Append(ctx, s.RecipeID, eventType, nil, map[string]string{"session": s.ID}); err != nil {
			slog.Warn("Failed to record timer history", logfields.Recipe(s.RecipeID), logfields.Error(err))
		}
	}

	event := events.TimerEvent{
		RecipeID:   s.RecipeID,
		Transition: transition,
		Phase:      string(phase),
		ElapsedMs:  elapsed,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(event); err != nil {
		slog.Warn("Failed to publish timer event", logfields.Recipe(s.RecipeID), logfields.Error(err))
	}
}
