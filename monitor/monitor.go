// Package monitor exposes Prometheus metrics for simulation runs.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor collects simulation metrics on a private registry so that
// tests and embedded uses never collide with the default registry.
type Monitor struct {
	registry *prometheus.Registry

	stepsTotal    prometheus.Counter
	episodesTotal prometheus.Counter
	runsActive    prometheus.Gauge

	episodeReward     prometheus.Histogram
	terminalInventory prometheus.Histogram
	episodeDuration   prometheus.Histogram
}

// Config names the metric namespace.
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig returns the default namespace.
func DefaultConfig() Config {
	return Config{Namespace: "mktsim", Subsystem: "run"}
}

// New creates a Monitor with all collectors registered.
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,
		stepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "steps_total", Help: "Simulation steps executed across all episodes.",
		}),
		episodesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "episodes_total", Help: "Episodes completed.",
		}),
		runsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "runs_active", Help: "Simulation runs currently in progress.",
		}),
		episodeReward: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "episode_reward", Help: "Mean per-trajectory episode reward.",
			Buckets: prometheus.LinearBuckets(-500, 50, 21),
		}),
		terminalInventory: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "terminal_inventory_abs", Help: "Mean absolute terminal inventory per episode.",
			Buckets: prometheus.ExponentialBucketsRange(0.1, 10000, 15),
		}),
		episodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem,
			Name: "episode_duration_seconds", Help: "Wall-clock episode duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RunStarted and RunFinished bracket a simulation run.
func (m *Monitor) RunStarted()  { m.runsActive.Inc() }
func (m *Monitor) RunFinished() { m.runsActive.Dec() }

// ObserveSteps counts executed steps.
func (m *Monitor) ObserveSteps(n int) { m.stepsTotal.Add(float64(n)) }

// ObserveEpisode records one completed episode.
func (m *Monitor) ObserveEpisode(meanReward, meanAbsTerminalInventory, seconds float64) {
	m.episodesTotal.Inc()
	m.episodeReward.Observe(meanReward)
	m.terminalInventory.Observe(meanAbsTerminalInventory)
	m.episodeDuration.Observe(seconds)
}

// Registry exposes the private registry for embedding and tests.
func (m *Monitor) Registry() *prometheus.Registry { return m.registry }

// Handler returns the /metrics handler for this monitor's registry.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a metrics server on addr in the background.
func (m *Monitor) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
