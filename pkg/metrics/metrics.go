// Package metrics counts resolution attempts and device transactions and
// exports them as a node_exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeEmpty    = "empty"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
)

// Recorder holds the run's collectors in a private registry. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	attempts     *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	prefixes     *prometheus.GaugeVec
	transactions *prometheus.CounterVec
}

// NewRecorder creates a recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filterupdate_attempts_total",
			Help: "Resolution attempts by stage (dialect, tool, route-objects) and outcome.",
		}, []string{"stage", "outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filterupdate_resolutions_total",
			Help: "Completed resolutions by method and outcome.",
		}, []string{"method", "outcome"}),
		prefixes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "filterupdate_prefixes",
			Help: "Prefixes in the last resolved prefix-list.",
		}, []string{"family"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filterupdate_device_transactions_total",
			Help: "Device configuration transactions by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(r.attempts, r.resolutions, r.prefixes, r.transactions)
	return r
}

// Attempt counts one try of a stage.
func (r *Recorder) Attempt(stage, outcome string) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(stage, outcome).Inc()
}

// Resolution counts a finished resolution.
func (r *Recorder) Resolution(method, outcome string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(method, outcome).Inc()
}

// Prefixes sets the resolved prefix count for family.
func (r *Recorder) Prefixes(family string, n int) {
	if r == nil {
		return
	}
	r.prefixes.WithLabelValues(family).Set(float64(n))
}

// Transaction counts a finished device transaction.
func (r *Recorder) Transaction(outcome string) {
	if r == nil {
		return
	}
	r.transactions.WithLabelValues(outcome).Inc()
}

// Gatherer exposes the registry, mainly for tests. A nil recorder gathers
// nothing.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile writes the registry in text exposition format to path,
// atomically, for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
