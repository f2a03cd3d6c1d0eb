// Package metrics records loader attempts and outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrWrite indicates the metrics textfile could not be written.
var ErrWrite = errors.New("failed to write metrics")

// Recorder collects per-attempt and per-resource metrics.
// It satisfies resloader.Recorder.
type Recorder struct {
	attempts *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors on reg.
// Returns an error if a collector with the same name is already registered.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resloader_attempts_total",
			Help: "Total number of resource load attempts",
		}, []string{"kind", "source", "outcome"}),

		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resloader_results_total",
			Help: "Total number of resources reaching a terminal state",
		}, []string{"kind", "state"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resloader_attempt_duration_seconds",
			Help:    "Duration of resource load attempts",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"kind", "source"}),
	}

	for _, c := range []prometheus.Collector{r.attempts, r.results, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering loader metrics: %w", err)
		}
	}
	return r, nil
}

// ObserveAttempt records one attempt and its duration.
func (r *Recorder) ObserveAttempt(kind, source, outcome string, seconds float64) {
	r.attempts.WithLabelValues(kind, source, outcome).Inc()
	r.duration.WithLabelValues(kind, source).Observe(seconds)
}

// ObserveResult records a resource reaching a terminal state.
func (r *Recorder) ObserveResult(kind, state string) {
	r.results.WithLabelValues(kind, state).Inc()
}

// WriteTextfile writes everything g gathers to path in the text
// exposition format, atomically, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
