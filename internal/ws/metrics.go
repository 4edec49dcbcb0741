package ws

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics instruments the handler. A nil *Metrics records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	steps       prometheus.Counter
	clients     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swh_runs_total",
			Help: "Simulation runs requested over WebSocket, by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swh_run_duration_seconds",
			Help:    "Wall-clock duration of completed simulation runs.",
			Buckets: prometheus.DefBuckets,
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swh_steps_total",
			Help: "Simulated instants recorded by completed runs.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swh_ws_clients",
			Help: "Connected WebSocket clients.",
		}),
	}
	reg.MustRegister(m.runs, m.runDuration, m.steps, m.clients)
	return m
}

func (m *Metrics) observeRun(start time.Time, steps int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.runs.WithLabelValues(outcomeError).Inc()
		return
	}
	m.runs.WithLabelValues(outcomeOK).Inc()
	m.runDuration.Observe(time.Since(start).Seconds())
	m.steps.Add(float64(steps))
}

func (m *Metrics) setClients(n int) {
	if m == nil {
		return
	}
	m.clients.Set(float64(n))
}
