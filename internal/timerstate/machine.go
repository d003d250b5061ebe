package timerstate

// Control transitions for the per-recipe timer state machine:
//
//	Stopped -> Running (Start)
//	Running -> Paused  (Pause)
//	Paused  -> Running (Resume)
//	any     -> Stopped (Reset)
//
// Out-of-order calls (Pause with no state, Resume while running) are silent
// no-ops, never errors: the UI drives these from buttons whose visibility
// can lag the persisted state in another tab.

// Phase reports the recipe's current control state.
func (s *Store) Phase(recipeID string) Phase {
	st, ok := s.Get(recipeID)
	switch {
	case !ok || st.StartTime == 0:
		return PhaseStopped
	case st.IsPaused:
		return PhasePaused
	default:
		return PhaseRunning
	}
}

// Start begins a recipe's timer at the current time. Starting an
// already-started recipe is a no-op; the running state is returned either
// way.
func (s *Store) Start(recipeID string, servingSize int) (TimerState, error) {
	if st, ok := s.Get(recipeID); ok {
		return st, nil
	}
	st := TimerState{
		StartTime:   s.nowMs(),
		ServingSize: servingSize,
	}
	return st, s.Set(recipeID, st)
}

// Pause freezes the elapsed clock. No-op unless the recipe is running.
func (s *Store) Pause(recipeID string) (TimerState, error) {
	st, ok := s.Get(recipeID)
	if !ok || st.IsPaused {
		return st, nil
	}
	st.IsPaused = true
	st.PausedAt = s.nowMs()
	return st, s.Set(recipeID, st)
}

// Resume unfreezes the clock by shifting StartTime forward by the pause
// duration, so elapsed time immediately after resume equals elapsed time
// immediately before pause. No-op unless paused.
func (s *Store) Resume(recipeID string) (TimerState, error) {
	st, ok := s.Get(recipeID)
	if !ok || !st.IsPaused {
		return st, nil
	}
	st.StartTime += s.nowMs() - st.PausedAt
	st.IsPaused = false
	st.PausedAt = 0
	return st, s.Set(recipeID, st)
}

// Reset deletes the recipe's state, returning it to Stopped.
func (s *Store) Reset(recipeID string) error {
	return s.Clear(recipeID)
}
