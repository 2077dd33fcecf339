package client

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects the counters and gauges a Client updates as it runs.
// Grounded on the teacher's stat.go: plain prometheus.Counter/Gauge values
// registered by the caller, rather than a package-level global registry, so
// an embedding application controls its own prometheus.Registerer.
type Metrics struct {
	PacketsSent     prometheus.Counter
	PacketsReceived prometheus.Counter
	BytesSent       prometheus.Counter
	BytesReceived   prometheus.Counter
	ReconnectTotal  prometheus.Counter
	PubWaitAck      prometheus.Gauge
	SubWaitAck      prometheus.Gauge
	PingRTT         prometheus.Histogram
}

// NewMetrics builds a Metrics with the given Prometheus label constant set
// (e.g. a client_id), unregistered. Call MustRegister to attach it to a
// registry.
func NewMetrics(constLabels prometheus.Labels) *Metrics {
	return &Metrics{
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_device_packets_sent_total", Help: "Total MQTT control packets sent.", ConstLabels: constLabels,
		}),
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_device_packets_received_total", Help: "Total MQTT control packets received.", ConstLabels: constLabels,
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_device_bytes_sent_total", Help: "Total bytes written to the transport.", ConstLabels: constLabels,
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_device_bytes_received_total", Help: "Total bytes read from the transport.", ConstLabels: constLabels,
		}),
		ReconnectTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_device_reconnect_total", Help: "Total successful reconnects.", ConstLabels: constLabels,
		}),
		PubWaitAck: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt_device_pub_wait_ack", Help: "Entries currently pending in the publish ack queue.", ConstLabels: constLabels,
		}),
		SubWaitAck: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt_device_sub_wait_ack", Help: "Entries currently pending in the subscribe/unsubscribe ack queue.", ConstLabels: constLabels,
		}),
		PingRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "mqtt_device_ping_rtt_seconds", Help: "Round-trip time between PINGREQ and PINGRESP.", ConstLabels: constLabels,
		}),
	}
}

// MustRegister attaches every metric in m to reg. Panics on a duplicate
// registration, matching prometheus.MustRegister's own contract.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.PacketsSent, m.PacketsReceived,
		m.BytesSent, m.BytesReceived,
		m.ReconnectTotal,
		m.PubWaitAck, m.SubWaitAck,
		m.PingRTT,
	)
}
