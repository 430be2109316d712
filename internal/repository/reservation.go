package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/reservation"
)

// ReservationStore opens Postgres transactions for the reservation
// coordinator.
type ReservationStore struct {
	db     DB
	ledger CapacityLedger
	now    func() time.Time
}

// NewReservationStore constructs a ReservationStore.
func NewReservationStore(db DB) *ReservationStore {
	return &ReservationStore{db: db, now: time.Now}
}

// BeginReservation implements reservation.Store.
func (s *ReservationStore) BeginReservation(ctx context.Context) (reservation.Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &reservationTx{tx: tx, ledger: s.ledger, now: s.now}, nil
}

type reservationTx struct {
	tx     pgx.Tx
	ledger CapacityLedger
	lock   *CapacityLock
	now    func() time.Time
}

func (t *reservationTx) AcquireCapacity(ctx context.Context, eventID string) (reservation.Capacity, error) {
	lock, err := t.ledger.AcquireForUpdate(ctx, t.tx, eventID)
	if err != nil {
		return reservation.Capacity{}, err
	}
	t.lock = lock
	return reservation.Capacity{
		EventID:        lock.EventID,
		Title:          lock.Title,
		IsActive:       lock.IsActive,
		TotalSeats:     lock.TotalSeats,
		SeatsRemaining: lock.SeatsRemaining,
	}, nil
}

func (t *reservationTx) Decrement(ctx context.Context, n int) (*int, error) {
	return t.ledger.Decrement(ctx, t.tx, t.lock, n)
}

func (t *reservationTx) InsertBooking(ctx context.Context, b reservation.NewBooking) (*model.Booking, error) {
	labels := b.SeatLabels
	if labels == nil {
		labels = []string{}
	}
	booking := &model.Booking{
		ID:          uuid.New().String(),
		EventID:     b.EventID,
		UserID:      b.HolderID,
		SeatsBooked: b.Seats,
		SeatLabels:  labels,
		PaymentUTR:  b.PaymentUTR,
		CreatedAt:   t.now().UTC(),
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO bookings (id, event_id, user_id, seats_booked, seat_labels, payment_utr, payment_verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, false, $7)`,
		booking.ID, booking.EventID, booking.UserID, booking.SeatsBooked, booking.SeatLabels, booking.PaymentUTR, booking.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return booking, nil
}

func (t *reservationTx) AttachPass(ctx context.Context, bookingID, token string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE bookings SET qr_token = $1 WHERE id = $2`,
		token, bookingID,
	)
	if err != nil {
		return fmt.Errorf("store qr token: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return errors.New("store qr token: booking row missing")
	}
	return nil
}

func (t *reservationTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *reservationTx) Rollback(ctx context.Context) error {
	return rollback(ctx, t.tx)
}
