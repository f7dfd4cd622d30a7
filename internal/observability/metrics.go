package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "linearwind"

// Metrics holds the Prometheus counters, histograms, and gauges for the simulation.
type Metrics struct {
	TimestepsRun      prometheus.Counter
	Events            *prometheus.CounterVec // labels: type={Tornado,Derecho}
	SitesDamaged      prometheus.Counter
	CohortsKilled     prometheus.Counter
	CohortsSenesced   prometheus.Counter
	SinkErrors        *prometheus.CounterVec // labels: sink
	SimulationRunning prometheus.Gauge
	LastTimestep      prometheus.Gauge

	TimestepDuration  prometheus.Histogram
	EventsPerTimestep prometheus.Histogram
}

var (
	eventLabels = []string{"type"}
	sinkLabels  = []string{"sink"}

	durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5}
	eventBuckets    = []float64{0, 1, 2, 5, 10, 20, 50, 100}
)

// NewMetrics creates and registers all simulation metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TimestepsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timesteps_total",
			Help:      "Total timesteps simulated.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Wind events initiated, by type.",
		}, eventLabels),
		SitesDamaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sites_damaged_total",
			Help:      "Total sites damaged by wind events.",
		}),
		CohortsKilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cohorts_killed_total",
			Help:      "Total cohorts killed by wind events.",
		}),
		CohortsSenesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cohorts_senesced_total",
			Help:      "Total cohorts removed by the host at their species longevity.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Event sink failures by sink name.",
		}, sinkLabels),
		SimulationRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_running",
			Help:      "1 while timesteps are being simulated, 0 otherwise.",
		}),
		LastTimestep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_timestep",
			Help:      "Simulation time of the last completed timestep.",
		}),
		TimestepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "timestep_duration_seconds",
			Help:      "Wall time of one timestep including outputs.",
			Buckets:   durationBuckets,
		}),
		EventsPerTimestep: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "events_per_timestep",
			Help:      "Number of damaging events per timestep.",
			Buckets:   eventBuckets,
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TimestepsRun,
		m.Events,
		m.SitesDamaged,
		m.CohortsKilled,
		m.CohortsSenesced,
		m.SinkErrors,
		m.SimulationRunning,
		m.LastTimestep,
		m.TimestepDuration,
		m.EventsPerTimestep,
	}
}
