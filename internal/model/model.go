// Package model defines the core domain types for the ticketing service.
package model

import "time"

// Roles understood by the auth layer.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
)

// MaxActiveEventsPerOrganizer caps how many active events one organizer may run.
const MaxActiveEventsPerOrganizer = 3

// User is an account holder. Organizers create events, users book them.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event represents a bookable event created by an organizer.
//
// TotalSeats and SeatsAvailable are nil for events with unbounded capacity.
type Event struct {
	ID             string     `json:"id"`
	OrganizerID    string     `json:"organizer_id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	LocationName   string     `json:"location_name"`
	EventDate      time.Time  `json:"event_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	TotalSeats     *int       `json:"total_seats"`
	SeatsAvailable *int       `json:"seats_available"`
	PricePerSeat   float64    `json:"price_per_seat"`
	Currency       string     `json:"currency"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Bounded reports whether the event has a finite seat pool.
func (e *Event) Bounded() bool {
	return e.TotalSeats != nil
}

// IsFull returns true when a bounded event has no remaining seats.
func (e *Event) IsFull() bool {
	return e.SeatsAvailable != nil && *e.SeatsAvailable <= 0
}

// Booking is a single successful purchase. The seats it holds were deducted
// from the event in the same transaction that created the row.
type Booking struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	SeatsBooked     int       `json:"seats_booked"`
	SeatLabels      []string  `json:"seat_labels,omitempty"`
	PaymentUTR      string    `json:"payment_utr"`
	PaymentVerified bool      `json:"payment_verified"`
	QRToken         *string   `json:"qr_token,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// PassSummary is a holder-facing view of a booking joined with its event.
type PassSummary struct {
	BookingID     string    `json:"id"`
	EventID       string    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	LocationName  string    `json:"location_name"`
	SeatsBooked   int       `json:"seats_booked"`
	SeatLabels    []string  `json:"seat_labels,omitempty"`
	PaymentUTR    string    `json:"payment_utr"`
	QRToken       *string   `json:"qr_token,omitempty"`
	DatePurchased time.Time `json:"date_purchased"`
}

// Admission is the minimum a door-staff UI needs after a successful scan.
type Admission struct {
	BookingID string `json:"-"`
	UserName  string `json:"user_name"`
	EventName string `json:"event_name"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
