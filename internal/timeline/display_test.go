package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minuteMs = 60 * 1000

func stepByID(t *testing.T, state DisplayState, id string) StepDisplay {
	t.Helper()
	for _, s := range state.Steps {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("no step %q in display state", id)
	return StepDisplay{}
}

func TestComputeDisplayStateBasic(t *testing.T) {
	tl := []Item{
		Action{ID: "a", StartMinute: 0, DurationMinutes: 5},
		Action{ID: "b", StartMinute: 5, DurationMinutes: 3},
	}

	state := ComputeDisplayState(tl, 2*minuteMs)
	assert.Equal(t, 2.0, state.ElapsedMinutes)
	assert.Equal(t, "a", state.CurrentStepID)
	assert.Equal(t, "b", state.NextStepID)

	a := stepByID(t, state, "a")
	assert.Equal(t, StatusDone, a.Status)
	assert.Equal(t, "Now", a.Countdown)

	b := stepByID(t, state, "b")
	assert.Equal(t, StatusWaiting, b.Status)
	assert.Equal(t, "T-03:00", b.Countdown)
	assert.True(t, b.Next)
	assert.False(t, b.Firing)
}

func TestComputeDisplayStateHidesPastSteps(t *testing.T) {
	tl := []Item{
		Action{ID: "a", StartMinute: 0, DurationMinutes: 5},
		Action{ID: "b", StartMinute: 5, DurationMinutes: 3},
	}

	state := ComputeDisplayState(tl, 6*minuteMs)
	assert.Equal(t, "b", state.CurrentStepID)
	assert.Equal(t, StatusHidden, stepByID(t, state, "a").Status)
	assert.Equal(t, StatusDone, stepByID(t, state, "b").Status)
}

func TestComputeDisplayStateZeroDurationMarkerStaysVisible(t *testing.T) {
	tl := []Item{Action{ID: "serve", StartMinute: 0}}

	state := ComputeDisplayState(tl, 90*minuteMs)
	serve := stepByID(t, state, "serve")
	assert.Equal(t, StatusDone, serve.Status, "endMinute 0 steps are never auto-hidden")
	assert.Equal(t, "Now", serve.Countdown)
}

func TestComputeDisplayStateFiring(t *testing.T) {
	tl := []Item{
		Action{ID: "a", StartMinute: 1, DurationMinutes: 2},
		Action{ID: "far", StartMinute: 30, DurationMinutes: 1},
	}

	// 40 seconds elapsed: 20s until "a" starts.
	state := ComputeDisplayState(tl, 40*1000)
	a := stepByID(t, state, "a")
	assert.True(t, a.Next)
	assert.True(t, a.Firing)
	assert.Equal(t, "T-00:20", a.Countdown)

	far := stepByID(t, state, "far")
	assert.False(t, far.Next)
	assert.False(t, far.Firing)
}

func TestComputeDisplayStateMarksSingleNext(t *testing.T) {
	tl := []Item{
		Action{ID: "soon", StartMinute: 10, DurationMinutes: 1},
		ParallelBlock{ID: "p", StartMinute: 4, Steps: []Action{
			{ID: "sooner", StartMinute: 4, DurationMinutes: 1},
		}},
	}

	state := ComputeDisplayState(tl, 0)
	assert.False(t, stepByID(t, state, "soon").Next)
	assert.True(t, stepByID(t, state, "sooner").Next, "nested actions compete for the next mark")

	marked := 0
	for _, s := range state.Steps {
		if s.Next {
			marked++
		}
	}
	assert.Equal(t, 1, marked)
}

func TestComputeDisplayStateEmptyTimeline(t *testing.T) {
	state := ComputeDisplayState(nil, 5*minuteMs)
	assert.Empty(t, state.Steps)
	assert.Empty(t, state.CurrentStepID)
	assert.Empty(t, state.NextStepID)
}

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		remaining float64
		want      string
	}{
		{0.5, "T-00:30"},
		{1, "T-01:00"},
		{3.25, "T-03:15"},
		{90, "T-90:00"},
		{0.0166, "T-00:00"}, // just under one second rounds down
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatCountdown(tc.remaining))
	}
}
