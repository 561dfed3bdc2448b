package telemetry_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/telemetry"
)

func TestNewRegistersCollectorsAndGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.New("test_stage", reg)

	m.StepCounter.Inc()
	m.FailedSteps.Inc()
	m.QueueDepth.Set(3)
	m.TaskDuration.Observe(0.25)

	g, ok := m.Gatherer()
	require.True(t, ok)

	families, err := g.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var sawSteps bool
	for _, f := range families {
		if f.GetName() == "test_stage_steps_mapped_total" {
			sawSteps = true
		}
	}
	require.True(t, sawSteps)
}

func TestNewWithNilRegistererUsesPrivateRegistry(t *testing.T) {
	m := telemetry.New("private", nil)
	_, ok := m.Gatherer()
	require.True(t, ok)
}

func TestNoOpDoesNotPanicOnUse(t *testing.T) {
	m := telemetry.NoOp()
	m.StepCounter.Inc()
	m.QueueDepth.Dec()
}
