package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric exported by the application.
const Namespace = "heatsolve"

// SolverMetrics exposes run and simulation counters in Prometheus format.
// Each instance owns its registry so that tests can create as many as they
// need without colliding on the default registerer.
type SolverMetrics struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	simulations *prometheus.CounterVec
	iterations  prometheus.Histogram
	duration    prometheus.Histogram
	active      prometheus.Gauge
	batches     prometheus.Counter
}

// NewSolverMetrics creates the collectors and registers them, together with
// the Go runtime and process collectors, on a fresh registry.
func NewSolverMetrics() *SolverMetrics {
	m := &SolverMetrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Runs ended, by outcome.",
		}, []string{"outcome"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "simulations_total",
			Help:      "Simulations ended, by status.",
		}, []string{"status"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "simulation_iterations",
			Help:      "Iterations run by simulations that terminated.",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 9),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall time spent in the solver per simulation.",
			Buckets:   prometheus.DefBuckets,
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_simulations",
			Help:      "Simulations currently running.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "progress_batches_total",
			Help:      "Progress batches handed to consumers.",
		}),
	}
	m.registry.MustRegister(
		m.runs, m.simulations, m.iterations, m.duration, m.active, m.batches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry so that other components can add collectors.
func (m *SolverMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *SolverMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RunStarted is called once per accepted batch.
func (m *SolverMetrics) RunStarted(int) {}

// RunEnded counts a run by outcome.
func (m *SolverMetrics) RunEnded(outcome string, _ time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
}

// SimulationStarted tracks a solver entering its loop.
func (m *SolverMetrics) SimulationStarted() { m.active.Inc() }

// SimulationEnded records a simulation leaving its loop for any reason.
func (m *SolverMetrics) SimulationEnded(status string, iterations int, elapsed time.Duration) {
	m.active.Dec()
	m.simulations.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
	if iterations > 0 {
		m.iterations.Observe(float64(iterations))
	}
}

// ProgressFlushed counts a delivered progress batch.
func (m *SolverMetrics) ProgressFlushed() { m.batches.Inc() }
