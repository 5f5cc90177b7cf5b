package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the availability and
// booking flows.
type BookingMetrics struct {
	availabilityTotal *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	webhookTotal      *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthassist",
			Subsystem: "scheduling",
			Name:      "availability_queries_total",
			Help:      "Total availability computations by status",
		}, []string{"status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthassist",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking attempts by session kind and outcome",
		}, []string{"kind", "status"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthassist",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Total Stripe webhook deliveries by event type and outcome",
		}, []string{"event_type", "outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthassist",
			Subsystem: "payments",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of Stripe webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityTotal, m.bookingsTotal, m.webhookTotal, m.webhookLatency)
	return m
}

func (m *BookingMetrics) ObserveAvailability(status string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveBooking(kind, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(kind, status).Inc()
}

func (m *BookingMetrics) ObserveWebhook(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *BookingMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}
