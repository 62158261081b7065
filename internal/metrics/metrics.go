// Package metrics records conversion, publication and validation outcomes
// on a Prometheus registry.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"isacore/pkg/validate"
)

const namespace = "isacore"

// Recorder aggregates operation outcomes. A nil *Recorder discards
// everything, so callers never need to guard.
type Recorder struct {
	registry    *prometheus.Registry
	operations  *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	diagnostics *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations by name and result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation durations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Validation diagnostics by severity.",
		}, []string{"severity"}),
	}
	r.registry.MustRegister(r.operations, r.durations, r.diagnostics)
	return r
}

// Registry exposes the underlying registry as a gatherer.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Observe records one operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Track starts timing operation; the returned func records it with the
// outcome err.
func (r *Recorder) Track(ctx context.Context, operation string) func(err error) {
	started := time.Now()
	return func(err error) {
		r.Observe(ctx, operation, err == nil, time.Since(started))
	}
}

// ObserveReport counts the diagnostics of rep by severity.
func (r *Recorder) ObserveReport(rep *validate.Report) {
	if r == nil || rep == nil {
		return
	}
	for sev, n := range rep.Count() {
		r.diagnostics.WithLabelValues(string(sev)).Add(float64(n))
	}
}

// WriteTextfile writes the current metrics in text exposition format, for
// node exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
