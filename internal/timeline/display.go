package timeline

import (
	"fmt"
	"time"
)

// StepStatus is the rendering state of one step card.
type StepStatus string

const (
	// StatusWaiting means the step's start is still ahead; show a countdown.
	StatusWaiting StepStatus = "waiting"
	// StatusDone means the step's start has arrived; show "Now".
	StatusDone StepStatus = "done"
	// StatusHidden means the step's window has fully passed.
	StatusHidden StepStatus = "hidden"
)

// firingWindow is how close to its start a step must be before it is flagged
// as imminent.
const firingWindow = 30 * time.Second

// StepDisplay is the per-card render decision for a single action.
type StepDisplay struct {
	ID               string     `json:"id"`
	Status           StepStatus `json:"status"`
	Countdown        string     `json:"countdown,omitempty"`
	RemainingMinutes float64    `json:"remainingMinutes"`
	Next             bool       `json:"next,omitempty"`
	Firing           bool       `json:"firing,omitempty"`
}

// DisplayState is everything the UI needs to redraw on one tick.
type DisplayState struct {
	ElapsedMinutes float64       `json:"elapsedMinutes"`
	CurrentStepID  string        `json:"currentStepId,omitempty"`
	NextStepID     string        `json:"nextStepId,omitempty"`
	Steps          []StepDisplay `json:"steps"`
}

// ComputeDisplayState derives the full render state for one tick. Every
// action gets a card state, parallel block members included; the "current"
// highlight still only considers top-level actions (see CurrentStep).
func ComputeDisplayState(items []Item, elapsedMs int64) DisplayState {
	elapsed := float64(elapsedMs) / 1000 / 60

	state := DisplayState{ElapsedMinutes: elapsed}
	if current, ok := CurrentStep(items, elapsed); ok {
		state.CurrentStepID = current.ID
	}
	if next, ok := NextStep(items, elapsed); ok {
		state.NextStepID = next.ItemID()
	}

	actions := Actions(items)
	state.Steps = make([]StepDisplay, 0, len(actions))
	nextIdx := -1
	for _, a := range actions {
		remaining := a.StartMinute - elapsed
		sd := StepDisplay{ID: a.ID, RemainingMinutes: remaining}

		switch {
		case a.EndMinute() > 0 && elapsed > a.EndMinute():
			// Fully past. Zero-duration markers at minute 0 never hit
			// this branch and stay visible.
			sd.Status = StatusHidden
		case remaining <= 0:
			sd.Status = StatusDone
			sd.Countdown = "Now"
		default:
			sd.Status = StatusWaiting
			sd.Countdown = FormatCountdown(remaining)
		}

		state.Steps = append(state.Steps, sd)
		if remaining > 0 && (nextIdx < 0 || remaining < state.Steps[nextIdx].RemainingMinutes) {
			nextIdx = len(state.Steps) - 1
		}
	}

	if nextIdx >= 0 {
		state.Steps[nextIdx].Next = true
		if state.Steps[nextIdx].RemainingMinutes*float64(time.Minute) < float64(firingWindow) {
			state.Steps[nextIdx].Firing = true
		}
	}
	return state
}

// FormatCountdown renders a positive remaining duration as "T-mm:ss".
// Fractional seconds round down so the display never jumps ahead of the
// clock.
func FormatCountdown(remainingMinutes float64) string {
	totalSeconds := int(remainingMinutes * 60)
	return fmt.Sprintf("T-%02d:%02d", totalSeconds/60, totalSeconds%60)
}
