package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBridgeMetricsObserve(t *testing.T) {
	m := NewBridgeMetrics(prometheus.NewRegistry())
	m.ObserveInbound("accepted")
	m.ObserveReply("sent")
	m.ObserveBooking("appointment")
	m.ObserveProcessingLatency("confirmation", 0.5)
}

func TestBridgeMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBridgeMetrics(reg)
	m.ObserveBooking("sobreturno")
}

func TestBridgeMetricsNilSafe(t *testing.T) {
	var m *BridgeMetrics
	m.ObserveInbound("accepted")
	m.ObserveReply("sent")
	m.ObserveBooking("appointment")
	m.ObserveProcessingLatency("greeting", 0.1)
}
