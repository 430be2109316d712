package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// ErrLockNotHeld is returned when Decrement is called without a lock taken in
// the same transaction.
var ErrLockNotHeld = errors.New("capacity lock not held by this transaction")

// CapacityLock is proof that the caller's transaction holds the exclusive row
// lock on one event. It is only produced by CapacityLedger.AcquireForUpdate.
type CapacityLock struct {
	tx pgx.Tx

	EventID    string
	Title      string
	IsActive   bool
	TotalSeats *int
	// SeatsRemaining is nil for unbounded events.
	SeatsRemaining *int
}

// CapacityLedger owns the seats_available counter of every event.
//
// ─────────────────────────────────────────────────────────────────────────────
// WHY FOR UPDATE
// ─────────────────────────────────────────────────────────────────────────────
//
// A plain read-then-write lets two transactions read the same
// seats_available, both pass the capacity check and both write back,
// overselling the event. SELECT … FOR UPDATE takes a row-level exclusive lock
// the moment it runs, and any other transaction issuing the same statement
// for that row blocks until the holder commits or rolls back. The waiter then
// reads the committed value and re-checks capacity against it.
//
// ─────────────────────────────────────────────────────────────────────────────
type CapacityLedger struct{}

// AcquireForUpdate locks the event row for the rest of tx and reports its
// capacity. Returns model.ErrNotFound when the event does not exist.
func (CapacityLedger) AcquireForUpdate(ctx context.Context, tx pgx.Tx, eventID string) (*CapacityLock, error) {
	lock := &CapacityLock{tx: tx, EventID: eventID}
	err := tx.QueryRow(ctx,
		`SELECT title, is_active, total_seats, seats_available
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventID,
	).Scan(&lock.Title, &lock.IsActive, &lock.TotalSeats, &lock.SeatsRemaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return lock, nil
}

// Decrement deducts n seats from a locked event within tx and returns the
// new remaining count. Unbounded events are left untouched and yield nil.
func (CapacityLedger) Decrement(ctx context.Context, tx pgx.Tx, lock *CapacityLock, n int) (*int, error) {
	if lock == nil || lock.tx != tx {
		return nil, ErrLockNotHeld
	}
	if n < 1 {
		return nil, fmt.Errorf("decrement by %d: must be positive", n)
	}
	if lock.SeatsRemaining == nil {
		return nil, nil
	}
	if n > *lock.SeatsRemaining {
		return nil, &model.InsufficientCapacityError{Remaining: *lock.SeatsRemaining, Requested: n}
	}

	remaining := *lock.SeatsRemaining - n
	tag, err := tx.Exec(ctx,
		`UPDATE events SET seats_available = $1 WHERE id = $2`,
		remaining, lock.EventID,
	)
	if err != nil {
		return nil, fmt.Errorf("update seats_available: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, fmt.Errorf("update seats_available: %d rows affected", tag.RowsAffected())
	}
	lock.SeatsRemaining = &remaining
	return &remaining, nil
}
