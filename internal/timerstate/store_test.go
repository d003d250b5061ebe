package timerstate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a controllable time source starting at a fixed instant.
func fakeClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

var t0 = time.UnixMilli(1_700_000_000_000)

func TestSetGetRoundTrip(t *testing.T) {
	store := New(NewMemoryBackend())

	in := TimerState{
		StartTime:     t0.UnixMilli(),
		IsPaused:      true,
		PausedAt:      t0.UnixMilli() + 5000,
		ServingSize:   4,
		CurrentStepID: "sear",
	}
	require.NoError(t, store.Set("carbonara", in))

	out, ok := store.Get("carbonara")
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGetAbsentRecipe(t *testing.T) {
	store := New(NewMemoryBackend())
	_, ok := store.Get("never-started")
	assert.False(t, ok)
}

func TestCorruptedStorageDegradesToAbsent(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save([]byte("{not json")))

	store := New(backend)
	_, ok := store.Get("carbonara")
	assert.False(t, ok)
	assert.EqualValues(t, 0, store.ElapsedMs("carbonara"))

	// Writes still work after a corrupt read.
	require.NoError(t, store.Set("carbonara", TimerState{StartTime: 1}))
	_, ok = store.Get("carbonara")
	assert.True(t, ok)
}

func TestClearLeavesOtherRecipesIntact(t *testing.T) {
	store := New(NewMemoryBackend())
	require.NoError(t, store.Set("soup", TimerState{StartTime: 10, ServingSize: 2}))
	require.NoError(t, store.Set("bread", TimerState{StartTime: 20, ServingSize: 6}))

	require.NoError(t, store.Clear("soup"))

	_, ok := store.Get("soup")
	assert.False(t, ok)

	bread, ok := store.Get("bread")
	require.True(t, ok)
	assert.Equal(t, TimerState{StartTime: 20, ServingSize: 6}, bread)
}

func TestClearAbsentIsHarmless(t *testing.T) {
	store := New(NewMemoryBackend())
	assert.NoError(t, store.Clear("nothing"))
}

func TestElapsedMsRunning(t *testing.T) {
	now, clock := fakeClock(t0)
	store := New(NewMemoryBackend()).WithClock(clock)

	_, err := store.Start("soup", 2)
	require.NoError(t, err)

	*now = t0.Add(90 * time.Second)
	assert.EqualValues(t, 90_000, store.ElapsedMs("soup"))
}

func TestElapsedMsPausedIsFrozen(t *testing.T) {
	store := New(NewMemoryBackend())
	require.NoError(t, store.Set("soup", TimerState{
		StartTime: t0.UnixMilli(),
		IsPaused:  true,
		PausedAt:  t0.UnixMilli() + 5000,
	}))

	// Frozen elapsed does not depend on when it is queried.
	assert.EqualValues(t, 5000, store.ElapsedMs("soup"))
	assert.EqualValues(t, 5000, store.ElapsedMs("soup"))
}

func TestElapsedMsNoState(t *testing.T) {
	store := New(NewMemoryBackend())
	assert.EqualValues(t, 0, store.ElapsedMs("soup"))
}

func TestFileBackendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "timers.json")

	store := New(NewFileBackend(path))
	require.NoError(t, store.Set("soup", TimerState{StartTime: 42, ServingSize: 3}))

	reopened := New(NewFileBackend(path))
	st, ok := reopened.Get("soup")
	require.True(t, ok)
	assert.Equal(t, TimerState{StartTime: 42, ServingSize: 3}, st)
}

func TestFileBackendMissingFileIsAbsent(t *testing.T) {
	store := New(NewFileBackend(filepath.Join(t.TempDir(), "nope.json")))
	_, ok := store.Get("soup")
	assert.False(t, ok)
}
