// Package telemetry exports Prometheus counters for fixed-grid integration.
//
// A nil *Recorder is valid and records nothing, so callers can thread one
// through unconditionally.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/san-kum/fixedgrid/internal/dynamo"
)

const namespace = "fixedgrid"

type Recorder struct {
	steps       *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewRecorder registers the collectors on reg. A nil reg builds collectors
// that are not registered anywhere.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		// steps counts completed and failed steps by scheme
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Fixed-grid steps by scheme and result",
		}, []string{"scheme", "result"}),

		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Derivative evaluations by scheme",
		}, []string{"scheme"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of a single step in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10), // 100ns to ~26ms
		}, []string{"scheme"}),
	}
}

func (r *Recorder) ObserveStep(scheme string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.steps.WithLabelValues(scheme, result).Inc()
	r.duration.WithLabelValues(scheme).Observe(elapsed.Seconds())
}

// WrapFunc counts every call made to f.
func (r *Recorder) WrapFunc(scheme string, f dynamo.Func) dynamo.Func {
	if r == nil || f == nil {
		return f
	}
	c := r.evaluations.WithLabelValues(scheme)
	return func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
		c.Inc()
		return f(t, y, p)
	}
}

func (r *Recorder) WrapControlFunc(scheme string, f dynamo.ControlFunc) dynamo.ControlFunc {
	if r == nil || f == nil {
		return f
	}
	c := r.evaluations.WithLabelValues(scheme)
	return func(t float64, y dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error) {
		c.Inc()
		return f(t, y, u, p)
	}
}
