// Package metrics defines the observability hooks emitted by timer sessions
// and site builds.
package metrics

import "time"

// Recorder defines observability hooks for session and build metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObserveTickDuration(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|failed
	IncTimerTransition(transition string)
	SetActiveSessions(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveTickDuration(time.Duration)  {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}
func (NoopRecorder) IncTimerTransition(string)          {}
func (NoopRecorder) SetActiveSessions(int)              {}
