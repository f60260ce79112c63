package controller

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are the Controller's operational counters (a tick duration
// histogram and a queue-saturation counter), grounded on
// 99souls-ariadne's use of client_golang for instrumenting its own
// pipeline stages. Unlike ariadne's dynamic metric-name registry, the
// Controller's metric set is small and fixed, so registering the
// primitives directly via promauto is the idiomatic fit rather than
// reimplementing ariadne's generic Provider abstraction.
type metrics struct {
	tickDuration   prometheus.Histogram
	queueSaturated prometheus.Counter
}

// singleton collectors: the controller's metric set is process-wide, and
// multiple Controller instances (as in tests) must not each attempt to
// register their own against the default registry.
var (
	metricsOnce sync.Once
	shared      metrics
)

func newMetrics() metrics {
	metricsOnce.Do(func() {
		shared = metrics{
			tickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: "invictus2obc",
				Subsystem: "controller",
				Name:      "tick_duration_seconds",
				Help:      "Duration of one HSM tick evaluation.",
				Buckets:   prometheus.DefBuckets,
			}),
			queueSaturated: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "invictus2obc",
				Subsystem: "controller",
				Name:      "queue_saturated_total",
				Help:      "Count of work-queue wake-ups dropped because the queue was full.",
			}),
		}
	})

	return shared
}
