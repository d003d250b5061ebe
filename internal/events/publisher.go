// Package events publishes timer transition notifications to interested
// outside consumers. Publishing is best-effort; a failed publish never
// blocks or fails the transition itself.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kjgarza/chickadee/internal/logfields"
)

// TimerEvent is the wire form of a published transition.
type TimerEvent struct {
	RecipeID   string    `json:"recipeId"`
	Transition string    `json:"transition"` // start|pause|resume|reset
	Phase      string    `json:"phase"`
	ElapsedMs  int64     `json:"elapsedMs"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers timer events.
type Publisher interface {
	Publish(event TimerEvent) error
	Close()
}

// NoopPublisher drops all events; used when publishing is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(TimerEvent) error { return nil }
func (NoopPublisher) Close()                   {}

// NATSPublisher publishes timer events to a NATS subject hierarchy:
// <subject>.<transition>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS and returns a publisher.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("chickadee"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) Publish(event TimerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal timer event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", p.subject, event.Transition)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish timer event: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		slog.Warn("NATS drain failed", logfields.Error(err))
	}
}
