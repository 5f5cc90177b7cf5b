package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveAvailability("ok")
	m.ObserveBooking("free", "success")
	m.ObserveWebhook("checkout.session.completed", "booked")
	m.ObserveWebhookLatency("checkout.session.completed", 0.2)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveAvailability("ok")
	m.ObserveBooking("paid", "failure")
	m.ObserveWebhook("event", "ignored")
	m.ObserveWebhookLatency("event", 0.1)
}
