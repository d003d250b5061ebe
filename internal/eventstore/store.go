// Package eventstore keeps an append-only history of timer transitions,
// queryable per recipe and by time range.
package eventstore

import (
	"context"
	"time"
)

// Transition names for stored timer events.
const (
	EventStarted = "timer.started"
	EventPaused  = "timer.paused"
	EventResumed = "timer.resumed"
	EventReset   = "timer.reset"
)

// Event is one recorded timer transition.
type Event struct {
	ID        int64             `json:"id"`
	RecipeID  string            `json:"recipeId"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   []byte            `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Store is the persistence interface for timer history.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, recipeID, eventType string, payload []byte, metadata map[string]string) error
	// GetByRecipe retrieves all events for a recipe, oldest first.
	GetByRecipe(ctx context.Context, recipeID string) ([]Event, error)
	// GetRange retrieves events within a time range, oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)
	// Prune removes events older than the cutoff, returning how many went.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
	// Close releases the underlying storage.
	Close() error
}
