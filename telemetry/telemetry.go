// Package telemetry wraps github.com/prometheus/client_golang/prometheus
// with the handful of collectors the pipeline kernel's map-reduce stage
// needs to report on: how many steps it has mapped, how long each
// upstream pull took, and how deep its local result queue is. Grounded
// on the teacher's metrics/metric.go Averager pattern (register-on-
// construct, nil-safe fallback) and api/metrics/gatherer.go's
// prefixed-registry idiom.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registerer is re-exported so callers need not import prometheus
// directly just to pass one in.
type Registerer = prometheus.Registerer

// Metrics is the set of collectors one mapreduce.Stage registers
// against a caller-supplied Registerer. A nil Registerer passed to New
// gets a private, unregistered prometheus.Registry rather than the
// global default — mirroring the teacher's NewAveragerWithErrs
// nil-safety, so running two stages in one process (as the test suite
// and scenario S4 both do) never collides on metric names.
type Metrics struct {
	reg Registerer

	mu sync.Mutex

	StepCounter  prometheus.Counter   // steps mapped to completion
	TaskDuration prometheus.Histogram // wall time per upstream Execute pull
	QueueDepth   prometheus.Gauge     // pending (queued+running) local tasks
	FailedSteps  prometheus.Counter   // steps whose task or reducer call errored
}

// New constructs and registers the stage's collectors under the given
// name prefix (typically the node's label, e.g. "mapreduce"). If reg is
// nil, a private registry is used so metrics are still observable via
// Gather but never collide with a process-wide default registerer.
func New(name string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		reg: reg,
		StepCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: name + "_steps_mapped_total",
			Help: "Total number of time steps mapped to completion.",
		}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: name + "_task_duration_seconds",
			Help: "Wall time of a single upstream Execute pull for one step.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name + "_queue_depth",
			Help: "Number of queued or running local tasks.",
		}),
		FailedSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: name + "_steps_failed_total",
			Help: "Total number of time steps whose task or reducer call errored.",
		}),
	}
	// Registration failures (duplicate collector for this name) are
	// swallowed, matching NewAveragerWithErrs: a stage must still run
	// with metrics disabled rather than fail a pipeline update over
	// telemetry wiring.
	_ = reg.Register(m.StepCounter)
	_ = reg.Register(m.TaskDuration)
	_ = reg.Register(m.QueueDepth)
	_ = reg.Register(m.FailedSteps)
	return m
}

// NoOp returns a Metrics instance registered against a private registry
// that nothing ever gathers from, for callers (tests, single-shot CLI
// runs) that don't want to wire a real Registerer.
func NoOp() *Metrics {
	return New("teca", prometheus.NewRegistry())
}

// Gatherer returns reg as a prometheus.Gatherer when it is one,
// grounded on api/metrics.NewPrefixGatherer's registry-as-gatherer
// idiom; cmd/tecarun uses this to expose an optional /metrics endpoint.
func (m *Metrics) Gatherer() (prometheus.Gatherer, bool) {
	g, ok := m.reg.(prometheus.Gatherer)
	return g, ok
}
