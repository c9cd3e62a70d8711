// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for selector telemetry. All record methods are
// nil-receiver safe so the selector can run without metrics attached.

package control

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the selector's prometheus collectors.
type Metrics struct {
	cycles         prometheus.Counter
	cycleDuration  prometheus.Histogram
	keysRegistered prometheus.Gauge
	keysPurged     prometheus.Counter
	wakeups        prometheus.Counter
	providerErrors prometheus.Counter
}

// NewMetrics registers the selector collectors with reg. A nil reg falls
// back to the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hioload",
			Subsystem: "mux",
			Name:      "selection_cycles_total",
			Help:      "Completed purge-poll-purge selection cycles.",
		}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hioload",
			Subsystem: "mux",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one selection cycle, poll wait included.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
		keysRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hioload",
			Subsystem: "mux",
			Name:      "keys_registered",
			Help:      "Registration keys currently held in the key set.",
		}),
		keysPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hioload",
			Subsystem: "mux",
			Name:      "keys_purged_total",
			Help:      "Cancelled keys removed by purge steps.",
		}),
		wakeups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hioload",
			Subsystem: "mux",
			Name:      "wakeups_total",
			Help:      "Wakeup calls delivered to the provider.",
		}),
		providerErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hioload",
			Subsystem: "mux",
			Name:      "provider_errors_total",
			Help:      "Errors surfaced by the provider poll.",
		}),
	}
}

// CycleDone records one completed selection cycle.
func (m *Metrics) CycleDone(d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.cycleDuration.Observe(d.Seconds())
}

// KeyRegistered records a key entering the key set.
func (m *Metrics) KeyRegistered() {
	if m == nil {
		return
	}
	m.keysRegistered.Inc()
}

// KeysPurged records n keys leaving the key set via purge or close.
func (m *Metrics) KeysPurged(n int) {
	if m == nil || n == 0 {
		return
	}
	m.keysRegistered.Sub(float64(n))
	m.keysPurged.Add(float64(n))
}

// Wakeup records one wakeup delivery.
func (m *Metrics) Wakeup() {
	if m == nil {
		return
	}
	m.wakeups.Inc()
}

// ProviderError records one failed provider poll.
func (m *Metrics) ProviderError() {
	if m == nil {
		return
	}
	m.providerErrors.Inc()
}
