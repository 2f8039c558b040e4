// Package metrics exposes the loop's operational counters as Prometheus
// collectors, grounded in the same per-operation counter/histogram shape
// the native socket layer's sibling packages use for device statistics,
// but wired onto the real client_golang types rather than hand-rolled
// atomics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector this core reports. Registering it is the
// caller's responsibility (see Register), so tests can use an isolated
// registry instead of the global default one.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	ConnectFailures     prometheus.Counter
	BytesSent           prometheus.Counter
	BytesReceived       prometheus.Counter
	ChannelErrors       prometheus.Counter
	SelectCycleDuration prometheus.Histogram
	RegistrySize        prometheus.GaugeFunc
}

// New builds a Metrics bundle under the given namespace. sizeFn is polled
// by the RegistrySize gauge on every scrape, typically wrapping
// selector.Selector.Size.
func New(namespace string, sizeFn func() float64) *Metrics {
	return &Metrics{
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total peer connections accepted by an Acceptor channel.",
		}),
		ConnectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Total connect attempts that failed, synchronously or during the handshake.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total bytes handed to the native socket via send.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total bytes returned by the native socket via recv.",
		}),
		ChannelErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_errors_total",
			Help:      "Total channel-level I/O errors surfaced as TriggerError.",
		}),
		SelectCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "select_cycle_duration_seconds",
			Help:      "Wall-clock duration of one select-process-drain cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		RegistrySize: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_size",
			Help:      "Number of socket handles currently registered with the selector.",
		}, sizeFn),
	}
}

// Register adds every collector in m to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.ConnectionsAccepted,
		m.ConnectFailures,
		m.BytesSent,
		m.BytesReceived,
		m.ChannelErrors,
		m.SelectCycleDuration,
		m.RegistrySize,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
