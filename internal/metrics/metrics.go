// Package metrics exposes Prometheus instruments for bookings and pass scans.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeSoldOut   = "insufficient_capacity"
	OutcomeInactive  = "inactive"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Verification results.
const (
	ResultValid         = "valid"
	ResultRevoked       = "revoked"
	ResultExpired       = "expired"
	ResultTampered      = "tampered"
	ResultMalformed     = "malformed"
	ResultInternalError = "error"
)

// Recorder holds the service's instruments. A nil *Recorder records nothing.
type Recorder struct {
	bookings        *prometheus.CounterVec
	seatsBooked     prometheus.Counter
	bookingDuration *prometheus.HistogramVec
	revocations     prometheus.Counter
	verifications   *prometheus.CounterVec
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		// Labels: outcome (committed, insufficient_capacity, inactive, not_found, invalid, error)
		bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketpass",
			Subsystem: "bookings",
			Name:      "total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		seatsBooked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ticketpass",
			Subsystem: "bookings",
			Name:      "seats_total",
			Help:      "Seats deducted by committed bookings",
		}),
		bookingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ticketpass",
			Subsystem: "bookings",
			Name:      "duration_seconds",
			Help:      "Time spent in the reservation transaction",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		revocations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ticketpass",
			Subsystem: "bookings",
			Name:      "revoked_total",
			Help:      "Bookings revoked by organizers",
		}),
		// Labels: result (valid, revoked, expired, tampered, malformed, error)
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketpass",
			Subsystem: "passes",
			Name:      "verifications_total",
			Help:      "Pass verification attempts by result",
		}, []string{"result"}),
	}
}

// Booking records one booking attempt.
func (r *Recorder) Booking(outcome string, seats int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.bookings.WithLabelValues(outcome).Inc()
	r.bookingDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == OutcomeCommitted {
		r.seatsBooked.Add(float64(seats))
	}
}

// Revocation records a revoked booking.
func (r *Recorder) Revocation() {
	if r == nil {
		return
	}
	r.revocations.Inc()
}

// Verification records one pass scan.
func (r *Recorder) Verification(result string) {
	if r == nil {
		return
	}
	r.verifications.WithLabelValues(result).Inc()
}
