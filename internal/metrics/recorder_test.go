package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveTickDuration(time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome("success")
	r.IncTimerTransition("start")
	r.SetActiveSessions(3)
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncTimerTransition("start")
	pr.IncTimerTransition("start")
	pr.IncTimerTransition("pause")
	pr.IncBuildOutcome("success")
	pr.SetActiveSessions(2)
	pr.ObserveTickDuration(5 * time.Millisecond)
	pr.ObserveBuildDuration(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.transitions.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.transitions.WithLabelValues("pause")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.buildOutcome.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pr.activeSessions))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPrometheusRecorderNilRegistry(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	require.NotNil(t, pr.Handler())
}
