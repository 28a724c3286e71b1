package provisioning

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Run metrics
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "galeractl",
			Subsystem: "provisioning",
			Name:      "runs_total",
			Help:      "Total number of provisioning runs by result",
		},
		[]string{"result"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "galeractl",
			Subsystem: "provisioning",
			Name:      "run_duration_seconds",
			Help:      "Duration of provisioning runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
	)

	// Node metrics
	nodeOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "galeractl",
			Subsystem: "provisioning",
			Name:      "node_outcomes_total",
			Help:      "Total number of node outcomes by role and result",
		},
		[]string{"role", "result"},
	)

	nodesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "galeractl",
			Subsystem: "provisioning",
			Name:      "nodes_in_flight",
			Help:      "Number of nodes with an open provisioning session",
		},
	)

	// Step metrics
	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "galeractl",
			Subsystem: "provisioning",
			Name:      "step_duration_seconds",
			Help:      "Duration of provisioning steps in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
		},
		[]string{"step", "result"},
	)

	droppedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "galeractl",
			Subsystem: "provisioning",
			Name:      "dropped_events_total",
			Help:      "Events not delivered to a slow subscriber",
		},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		runDuration,
		nodeOutcomesTotal,
		nodesInFlight,
		stepDuration,
		droppedEvents,
	)
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// recordRunMetric records the result of a provisioning run.
func recordRunMetric(ok bool, seconds float64) {
	runsTotal.WithLabelValues(resultLabel(ok)).Inc()
	runDuration.Observe(seconds)
}

// recordNodeOutcomeMetric records the outcome of one node.
func recordNodeOutcomeMetric(role string, ok bool) {
	nodeOutcomesTotal.WithLabelValues(role, resultLabel(ok)).Inc()
}

// recordStepMetric records the duration of one step.
func recordStepMetric(step string, ok bool, seconds float64) {
	stepDuration.WithLabelValues(step, resultLabel(ok)).Observe(seconds)
}
