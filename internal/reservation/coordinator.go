package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// rollbackTimeout bounds the rollback issued after a failure. It runs on a
// context detached from the request so a cancelled request still releases
// its lock.
const rollbackTimeout = 5 * time.Second

// Error reports the state a failed attempt had reached. Final is
// StateRolledBack once the transaction was rolled back, and equals State when
// the rollback itself failed.
type Error struct {
	State State
	Final State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reservation failed after %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FailedAt returns the state a failed attempt reached, if err came from the
// coordinator.
func FailedAt(err error) (State, bool) {
	var rErr *Error
	if errors.As(err, &rErr) {
		return rErr.State, true
	}
	return 0, false
}

// Coordinator runs reservation attempts against a Store.
type Coordinator struct {
	store  Store
	minter Minter
	logger *slog.Logger
	now    func() time.Time
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(store Store, minter Minter, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: store, minter: minter, logger: logger, now: time.Now}
}

// Reserve performs one all-or-nothing booking attempt:
//
//	lock capacity → validate → decrement → insert booking → mint pass →
//	attach pass → commit
//
// Any failure after the transaction opens rolls it back before returning.
// Reserve is not idempotent: every call that passes validation consumes
// capacity, including client retries of an attempt that already succeeded.
func (c *Coordinator) Reserve(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := checkSeatLabels(req.SeatLabels); err != nil {
		return nil, err
	}

	start := c.now()
	state := StateStarted
	log := c.logger.With("event_id", req.EventID, "holder_id", req.HolderID, "seats", req.Seats)

	tx, err := c.store.BeginReservation(ctx)
	if err != nil {
		return nil, &Error{State: state, Final: state, Err: fmt.Errorf("begin transaction: %w", err)}
	}

	committed := false
	var failure *Error
	defer func() {
		if committed {
			return
		}
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		if rbErr := tx.Rollback(rbCtx); rbErr != nil {
			log.Error("failed to roll back reservation transaction",
				"critical", true, "state", state.String(), "error", rbErr)
			return
		}
		if failure != nil {
			failure.Final = StateRolledBack
		}
		log.Debug("reservation rolled back", "state", state.String())
	}()

	fail := func(err error) (*Result, error) {
		failure = &Error{State: state, Final: state, Err: err}
		return nil, failure
	}

	// ── Lock ────────────────────────────────────────────────────────────
	capacity, err := tx.AcquireCapacity(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fail(model.ErrNotFound)
		}
		return fail(fmt.Errorf("lock event capacity: %w", err))
	}
	state = StateLocked

	// ── Validate ────────────────────────────────────────────────────────
	if !capacity.IsActive {
		return fail(model.ErrEventInactive)
	}
	if capacity.Bounded() && *capacity.SeatsRemaining < req.Seats {
		return fail(&model.InsufficientCapacityError{
			Remaining: *capacity.SeatsRemaining,
			Requested: req.Seats,
		})
	}
	state = StateValidated

	// ── Decrement ───────────────────────────────────────────────────────
	remaining, err := tx.Decrement(ctx, req.Seats)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientCapacity) {
			return fail(err)
		}
		return fail(fmt.Errorf("decrement capacity: %w", err))
	}
	state = StateDecremented

	// ── Persist booking ─────────────────────────────────────────────────
	booking, err := tx.InsertBooking(ctx, NewBooking{
		EventID:    req.EventID,
		HolderID:   req.HolderID,
		Seats:      req.Seats,
		SeatLabels: req.SeatLabels,
		PaymentUTR: req.PaymentUTR,
	})
	if err != nil {
		return fail(fmt.Errorf("insert booking: %w", err))
	}
	state = StateBookingPersisted

	// ── Issue pass ──────────────────────────────────────────────────────
	token, err := c.minter.Mint(booking.ID, req.HolderID, req.EventID, req.SeatLabels)
	if err != nil {
		return fail(fmt.Errorf("mint pass: %w", err))
	}
	if err := tx.AttachPass(ctx, booking.ID, token); err != nil {
		return fail(fmt.Errorf("attach pass: %w", err))
	}
	booking.QRToken = &token
	state = StateCredentialIssued

	// ── Commit ──────────────────────────────────────────────────────────
	if err := tx.Commit(ctx); err != nil {
		return fail(fmt.Errorf("commit transaction: %w", err))
	}
	committed = true
	state = StateCommitted

	elapsed := c.now().Sub(start)
	log.Info("booking committed", "booking_id", booking.ID, "seats_remaining", seatsLeft(remaining), "duration", elapsed)

	return &Result{
		Booking:        booking,
		EventTitle:     capacity.Title,
		SeatsRemaining: remaining,
		Pass:           token,
		State:          state,
		Duration:       elapsed,
	}, nil
}

func seatsLeft(remaining *int) any {
	if remaining == nil {
		return "unbounded"
	}
	return *remaining
}

func checkSeatLabels(labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			return model.Invalid("seats", "Seat labels must not be empty.")
		}
		if _, dup := seen[l]; dup {
			return model.Invalid("seats", "Seat label %q requested twice.", l)
		}
		seen[l] = struct{}{}
	}
	return nil
}
