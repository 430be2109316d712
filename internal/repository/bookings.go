package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// BookingRepository reads and revokes committed bookings. New bookings are
// only ever written by the reservation coordinator through ReservationStore.
type BookingRepository struct {
	db DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListByUser returns the holder's passes, most recent purchase first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]model.PassSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.event_id, e.title, e.event_date, e.location_name,
		        b.seats_booked, b.seat_labels, b.payment_utr, b.qr_token, b.created_at
		 FROM bookings b
		 JOIN events e ON e.id = b.event_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var passes []model.PassSummary
	for rows.Next() {
		var p model.PassSummary
		if err := rows.Scan(
			&p.BookingID, &p.EventID, &p.EventTitle, &p.EventDate, &p.LocationName,
			&p.SeatsBooked, &p.SeatLabels, &p.PaymentUTR, &p.QRToken, &p.DatePurchased,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// FindAdmission looks up the live booking that carries token. A booking that
// was deleted, or whose stored token differs, yields model.ErrPassRevoked.
func (r *BookingRepository) FindAdmission(ctx context.Context, bookingID, token string) (*model.Admission, error) {
	a := model.Admission{BookingID: bookingID}
	err := r.db.QueryRow(ctx,
		`SELECT u.name, e.title
		 FROM bookings b
		 JOIN users u ON u.id = b.user_id
		 JOIN events e ON e.id = b.event_id
		 WHERE b.id = $1 AND b.qr_token = $2`,
		bookingID, token,
	).Scan(&a.UserName, &a.EventName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPassRevoked
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &a, nil
}

// Revoke deletes a booking on behalf of the organizer of its event, which
// invalidates its pass. Seats are not returned to the event.
func (r *BookingRepository) Revoke(ctx context.Context, bookingID, organizerID string) (*model.Booking, error) {
	var b model.Booking
	var owner string
	err := r.db.QueryRow(ctx,
		`SELECT b.id, b.event_id, b.user_id, b.seats_booked, e.organizer_id
		 FROM bookings b
		 JOIN events e ON e.id = b.event_id
		 WHERE b.id = $1`,
		bookingID,
	).Scan(&b.ID, &b.EventID, &b.UserID, &b.SeatsBooked, &owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if owner != organizerID {
		return nil, model.ErrForbidden
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrNotFound
	}
	return &b, nil
}
