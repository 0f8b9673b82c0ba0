package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics records booking and payment outcomes.
type BookingMetrics struct {
	createDuration *prometheus.HistogramVec
	bookings       *prometheus.CounterVec
	payments       *prometheus.CounterVec
}

// NewBookingMetrics registers the booking metrics on the provided registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	createDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_create_duration_seconds",
		Help:    "Duration of booking creation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Booking creation attempts by outcome.",
	}, []string{"outcome"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(createDuration, bookings, payments)
	return &BookingMetrics{
		createDuration: createDuration,
		bookings:       bookings,
		payments:       payments,
	}
}

// ObserveCreateDuration records how long a booking creation took.
func (m *BookingMetrics) ObserveCreateDuration(outcome string, duration time.Duration) {
	if m == nil || m.createDuration == nil {
		return
	}
	m.createDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncBooking increments the booking counter for the given outcome.
func (m *BookingMetrics) IncBooking(outcome string) {
	if m == nil || m.bookings == nil {
		return
	}
	m.bookings.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPayment increments the payment verification counter for the given outcome.
func (m *BookingMetrics) IncPayment(outcome string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
