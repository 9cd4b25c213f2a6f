package extensions

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pumped-fn/itemshop"
)

// MetricsExtension exports Prometheus metrics for fetches and workflow calls.
type MetricsExtension struct {
	itemshop.BaseExtension

	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	stale      *prometheus.CounterVec
	panics     *prometheus.CounterVec
	inFlight   *prometheus.GaugeVec
}

// NewMetricsExtension registers the collectors on reg. An empty namespace defaults to "itemshop".
func NewMetricsExtension(reg prometheus.Registerer, namespace string) (*MetricsExtension, error) {
	if namespace == "" {
		namespace = "itemshop"
	}

	e := &MetricsExtension{
		BaseExtension: itemshop.NewBaseExtension("metrics"),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "operation",
				Name:      "total",
				Help:      "Total number of fetches and workflow calls",
			},
			[]string{"kind", "name", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "operation",
				Name:      "duration_seconds",
				Help:      "Time taken by fetches and workflow calls",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"kind", "name"},
		),
		stale: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "stale_responses_total",
				Help:      "Responses discarded because a newer fetch had been issued",
			},
			[]string{"name"},
		),
		panics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "operation",
				Name:      "panics_total",
				Help:      "Recovered panics",
			},
			[]string{"kind", "name"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "operation",
				Name:      "in_flight",
				Help:      "Operations currently running",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{e.operations, e.latency, e.stale, e.panics, e.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return e, nil
}

// Order places metrics outside every other extension.
func (e *MetricsExtension) Order() int {
	return 10
}

func (e *MetricsExtension) Wrap(ctx context.Context, next func() (any, error), op *itemshop.Operation) (any, error) {
	kind := string(op.Kind)
	gauge := e.inFlight.WithLabelValues(kind)
	gauge.Inc()
	defer gauge.Dec()

	start := time.Now()
	result, err := next()
	e.latency.WithLabelValues(kind, op.Name).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	e.operations.WithLabelValues(kind, op.Name, outcome).Inc()
	return result, err
}

func (e *MetricsExtension) OnStale(op *itemshop.Operation) {
	e.stale.WithLabelValues(op.Name).Inc()
}

func (e *MetricsExtension) OnPanic(op *itemshop.Operation, recovered any, stack []byte) {
	e.panics.WithLabelValues(string(op.Kind), op.Name).Inc()
}
