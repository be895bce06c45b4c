package metrics

import "github.com/prometheus/client_golang/prometheus"

// BridgeMetrics exposes counters/histograms for the WhatsApp bridge flows.
type BridgeMetrics struct {
	inboundTotal      *prometheus.CounterVec
	repliesTotal      *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	processingLatency *prometheus.HistogramVec
}

func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	m := &BridgeMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound Evolution webhooks",
		}, []string{"status"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "messaging",
			Name:      "replies_total",
			Help:      "Total WhatsApp replies sent",
		}, []string{"status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Total bookings created via the bot",
		}, []string{"type"}),
		processingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bridge",
			Subsystem: "messaging",
			Name:      "processing_latency_seconds",
			Help:      "Latency of inbound message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.bookingsTotal, m.processingLatency)
	return m
}

func (m *BridgeMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *BridgeMetrics) ObserveReply(status string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(status).Inc()
}

func (m *BridgeMetrics) ObserveBooking(bookingType string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(bookingType).Inc()
}

func (m *BridgeMetrics) ObserveProcessingLatency(step string, seconds float64) {
	if m == nil {
		return
	}
	m.processingLatency.WithLabelValues(step).Observe(seconds)
}
