// Package reservation turns a booking request into a committed booking and a
// signed pass, or into nothing at all.
//
// All coordination between concurrent bookings is pushed down to the store:
// Tx.AcquireCapacity must take an exclusive lock on the event's capacity
// record that is held until Commit or Rollback. Two bookings for the same
// event therefore serialise at that call, and the second one re-evaluates
// capacity against whatever the first one committed. Bookings for different
// events never wait on each other.
package reservation

import (
	"context"
	"regexp"
	"time"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// paymentUTRPattern matches UPI transaction references.
var paymentUTRPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,20}$`)

// ValidPaymentUTR reports whether ref looks like a payment reference.
func ValidPaymentUTR(ref string) bool {
	return paymentUTRPattern.MatchString(ref)
}

// Request is one purchase attempt.
type Request struct {
	EventID    string
	HolderID   string
	Seats      int
	SeatLabels []string
	PaymentUTR string
}

// Validate checks the parts of r that need no storage access.
func (r Request) Validate() error {
	switch {
	case r.EventID == "":
		return model.Invalid("event_id", "Missing required field: event_id")
	case r.HolderID == "":
		return model.Invalid("holder", "Missing booking holder")
	case r.PaymentUTR == "":
		return model.Invalid("payment_utr", "Missing required field: payment_utr")
	case r.Seats < 1:
		return model.Invalid("seats_requested", "Must book at least 1 seat.")
	case !ValidPaymentUTR(r.PaymentUTR):
		return model.Invalid("payment_utr", "Invalid Payment UTR format. UTRs are 8-20 alphanumeric characters.")
	case len(r.SeatLabels) > 0 && len(r.SeatLabels) != r.Seats:
		return model.Invalid("seats", "Seat labels must match seats_requested.")
	}
	return nil
}

// Capacity is what the store reports about a locked event.
type Capacity struct {
	EventID    string
	Title      string
	IsActive   bool
	TotalSeats *int
	// SeatsRemaining is nil for unbounded events.
	SeatsRemaining *int
}

// Bounded reports whether the event has a finite seat pool.
func (c Capacity) Bounded() bool {
	return c.SeatsRemaining != nil
}

// NewBooking is the row the coordinator asks the store to insert.
type NewBooking struct {
	EventID    string
	HolderID   string
	Seats      int
	SeatLabels []string
	PaymentUTR string
}

// Store opens reservation transactions.
type Store interface {
	BeginReservation(ctx context.Context) (Tx, error)
}

// Tx is one reservation transaction. Implementations must make every call
// after AcquireCapacity part of the same atomic unit, and must release every
// lock and connection on Commit or Rollback, whether or not those succeed.
type Tx interface {
	// AcquireCapacity locks the event's capacity record until the
	// transaction ends. Returns model.ErrNotFound for unknown events.
	AcquireCapacity(ctx context.Context, eventID string) (Capacity, error)
	// Decrement deducts n seats from the locked event and returns the new
	// remaining count (nil when unbounded). It fails with
	// model.ErrInsufficientCapacity when n exceeds what is left.
	Decrement(ctx context.Context, n int) (*int, error)
	// InsertBooking persists the booking row and returns it with its
	// generated id and creation timestamp.
	InsertBooking(ctx context.Context, b NewBooking) (*model.Booking, error)
	// AttachPass stores the minted pass on the booking row.
	AttachPass(ctx context.Context, bookingID, token string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Minter signs passes.
type Minter interface {
	Mint(bookingID, holderID, eventID string, seats []string) (string, error)
}

// Result is a committed booking.
type Result struct {
	Booking        *model.Booking
	EventTitle     string
	SeatsRemaining *int
	Pass           string
	State          State
	Duration       time.Duration
}
