package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects counters for backtest runs and parameter sweeps,
// exposed over a Prometheus endpoint. Each Metrics owns its registry so
// independent sweeps never collide on metric registration.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
	tradesTotal prometheus.Counter
	sweepJobs   *prometheus.CounterVec
}

// NewMetrics builds and registers the backtest metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtest_runs_total",
				Help: "Completed backtest runs by terminal state",
			},
			[]string{"state"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "backtest_run_duration_seconds",
				Help:    "Wall-clock duration of one backtest run",
				Buckets: prometheus.DefBuckets,
			},
		),
		tradesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backtest_trades_total",
				Help: "Trades executed across all runs",
			},
		),
		sweepJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtest_sweep_jobs_total",
				Help: "Parameter sweep jobs by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(m.runsTotal, m.runDuration, m.tradesTotal, m.sweepJobs)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(duration time.Duration, trades int, errored bool) {
	state := "finished"
	if errored {
		state = "errored"
	}
	m.runsTotal.WithLabelValues(state).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.tradesTotal.Add(float64(trades))
}

// ObserveSweepJob records one sweep job outcome.
func (m *Metrics) ObserveSweepJob(failed bool) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.sweepJobs.WithLabelValues(outcome).Inc()
}

// Handler serves this metric set in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
