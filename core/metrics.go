package core

import (
	"github.com/huangsam/orgpulse/schema"
	"github.com/prometheus/client_golang/prometheus"
)

// Repository outcomes recorded by the collector.
const (
	outcomeCommitted = "committed"
	outcomeEmpty     = "empty"
	outcomeFailed    = "failed"
	outcomeIgnored   = "ignored"
)

// Metrics holds the collection counters on a private registry so that
// they can be written to a node-exporter textfile after each run.
type Metrics struct {
	registry     *prometheus.Registry
	repositories *prometheus.CounterVec
	runs         *prometheus.CounterVec
	duration     prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// NewMetrics creates and registers the collection metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		repositories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgpulse",
			Name:      "repositories_total",
			Help:      "Repositories processed by collection runs, by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgpulse",
			Name:      "collection_runs_total",
			Help:      "Finished collection runs, by final state.",
		}, []string{"state"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orgpulse",
			Name:      "collection_duration_seconds",
			Help:      "Duration of the last collection run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orgpulse",
			Name:      "collection_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful collection run.",
		}),
	}
	m.registry.MustRegister(m.repositories, m.runs, m.duration, m.lastSuccess)
	return m
}

func (m *Metrics) repository(outcome string) {
	m.repositories.WithLabelValues(outcome).Inc()
}

func (m *Metrics) finish(result schema.CollectionResult) {
	m.runs.WithLabelValues(string(result.State)).Inc()
	m.duration.Set(result.Duration.Seconds())
	if result.State == schema.RunSucceeded {
		m.lastSuccess.Set(float64(result.EndTime.Add(result.Duration).Unix()))
	}
}

// WriteToTextfile writes the current metric values in the text exposition format.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
