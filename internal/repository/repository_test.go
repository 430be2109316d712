package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/reservation"
)

func intPtr(n int) *int { return &n }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var capacityCols = []string{"title", "is_active", "total_seats", "seats_available"}

// ─── Capacity ledger ──────────────────────────────────────────────────────────

func TestLedgerLocksAndDecrements(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM events WHERE id = .+ FOR UPDATE").
		WithArgs("evt-1").
		WillReturnRows(pgxmock.NewRows(capacityCols).AddRow("Gig", true, intPtr(10), intPtr(3)))
	mock.ExpectExec("UPDATE events SET seats_available").
		WithArgs(1, "evt-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	var ledger CapacityLedger
	lock, err := ledger.AcquireForUpdate(ctx, tx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Gig", lock.Title)
	assert.Equal(t, 3, *lock.SeatsRemaining)

	remaining, err := ledger.Decrement(ctx, tx, lock, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, *remaining)
	assert.Equal(t, 1, *lock.SeatsRemaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerUnknownEvent(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(capacityCols))

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, err = CapacityLedger{}.AcquireForUpdate(ctx, tx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRefusesOverdraw(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("evt-1").
		WillReturnRows(pgxmock.NewRows(capacityCols).AddRow("Gig", true, intPtr(10), intPtr(1)))

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	var ledger CapacityLedger
	lock, err := ledger.AcquireForUpdate(ctx, tx, "evt-1")
	require.NoError(t, err)

	_, err = ledger.Decrement(ctx, tx, lock, 2)
	require.ErrorIs(t, err, model.ErrInsufficientCapacity)
	var capErr *model.InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerUnboundedIsNoop(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("evt-1").
		WillReturnRows(pgxmock.NewRows(capacityCols).AddRow("Open day", true, (*int)(nil), (*int)(nil)))

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	var ledger CapacityLedger
	lock, err := ledger.AcquireForUpdate(ctx, tx, "evt-1")
	require.NoError(t, err)
	assert.Nil(t, lock.SeatsRemaining)

	remaining, err := ledger.Decrement(ctx, tx, lock, 500)
	require.NoError(t, err)
	assert.Nil(t, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerDecrementRequiresLock(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()
	mock.ExpectBegin()

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, err = CapacityLedger{}.Decrement(ctx, tx, nil, 1)
	assert.ErrorIs(t, err, ErrLockNotHeld)

	foreign := &CapacityLock{EventID: "evt-1", SeatsRemaining: intPtr(5)}
	_, err = CapacityLedger{}.Decrement(ctx, tx, foreign, 1)
	assert.ErrorIs(t, err, ErrLockNotHeld)
}

// ─── Reservation store ────────────────────────────────────────────────────────

func TestReservationTxHappyPath(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("evt-1").
		WillReturnRows(pgxmock.NewRows(capacityCols).AddRow("Gig", true, intPtr(2), intPtr(2)))
	mock.ExpectExec("UPDATE events SET seats_available").
		WithArgs(0, "evt-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), "evt-1", "user-1", 2, []string{"A1", "A2"}, "UTR12345678", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE bookings SET qr_token").
		WithArgs("signed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	store := NewReservationStore(mock)
	tx, err := store.BeginReservation(ctx)
	require.NoError(t, err)

	capacity, err := tx.AcquireCapacity(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, capacity.Bounded())

	remaining, err := tx.Decrement(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, *remaining)

	booking, err := tx.InsertBooking(ctx, reservation.NewBooking{
		EventID: "evt-1", HolderID: "user-1", Seats: 2,
		SeatLabels: []string{"A1", "A2"}, PaymentUTR: "UTR12345678",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.False(t, booking.PaymentVerified)

	require.NoError(t, tx.AttachPass(ctx, booking.ID, "signed"))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationTxStoresEmptyLabelArray(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), "evt-1", "user-1", 1, []string{}, "UTR12345678", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := NewReservationStore(mock).BeginReservation(ctx)
	require.NoError(t, err)

	_, err = tx.InsertBooking(ctx, reservation.NewBooking{
		EventID: "evt-1", HolderID: "user-1", Seats: 1, PaymentUTR: "UTR12345678",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationTxAttachPassMissingRow(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET qr_token").
		WithArgs("signed", "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := NewReservationStore(mock).BeginReservation(ctx)
	require.NoError(t, err)
	assert.Error(t, tx.AttachPass(ctx, "gone", "signed"))
}

func TestReservationStoreBeginFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := NewReservationStore(mock).BeginReservation(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
}

// ─── Events ───────────────────────────────────────────────────────────────────

func TestEventCreateSeedsAvailableSeats(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM users").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(model.RoleOrganizer))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("INSERT INTO events").
		WithArgs(pgxmock.AnyArg(), "org-1", "Gig", (*string)(nil), "Hall", pgxmock.AnyArg(), (*time.Time)(nil),
			intPtr(50), intPtr(50), 0.0, "INR", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	e := &model.Event{
		OrganizerID:  "org-1",
		Title:        "Gig",
		LocationName: "Hall",
		EventDate:    time.Now().Add(24 * time.Hour),
		TotalSeats:   intPtr(50),
	}
	require.NoError(t, NewEventRepository(mock).Create(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.True(t, e.IsActive)
	require.NotNil(t, e.SeatsAvailable)
	assert.Equal(t, 50, *e.SeatsAvailable)
	assert.NotSame(t, e.TotalSeats, e.SeatsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCreateEnforcesActiveCap(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM users").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(model.RoleOrganizer))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(model.MaxActiveEventsPerOrganizer))
	mock.ExpectRollback()

	err := NewEventRepository(mock).Create(context.Background(), &model.Event{OrganizerID: "org-1"})
	assert.ErrorIs(t, err, model.ErrActiveEventLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCreateRejectsNonOrganizer(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM users").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(model.RoleUser))
	mock.ExpectRollback()

	err := NewEventRepository(mock).Create(context.Background(), &model.Event{OrganizerID: "user-1"})
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var eventCols = []string{
	"id", "organizer_id", "title", "description", "location_name", "event_date", "end_date",
	"total_seats", "seats_available", "price_per_seat", "currency", "is_active", "created_at",
}

func TestEventGetByID(t *testing.T) {
	mock := newMock(t)
	when := time.Date(2027, 1, 2, 18, 0, 0, 0, time.UTC)
	desc := "Live set"

	mock.ExpectQuery("FROM events WHERE id").
		WithArgs("evt-1").
		WillReturnRows(pgxmock.NewRows(eventCols).AddRow(
			"evt-1", "org-1", "Gig", &desc, "Hall", when, (*time.Time)(nil),
			intPtr(100), intPtr(40), 250.0, "INR", true, when.Add(-time.Hour),
		))

	e, err := NewEventRepository(mock).GetByID(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Gig", e.Title)
	assert.Equal(t, "Live set", *e.Description)
	assert.Nil(t, e.EndDate)
	assert.Equal(t, 40, *e.SeatsAvailable)
	assert.InDelta(t, 250.0, e.PricePerSeat, 0.001)
}

func TestEventGetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM events WHERE id").
		WithArgs("evt-x").
		WillReturnRows(pgxmock.NewRows(eventCols))

	_, err := NewEventRepository(mock).GetByID(context.Background(), "evt-x")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEventListByOrganizer(t *testing.T) {
	mock := newMock(t)
	when := time.Date(2027, 1, 2, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE organizer_id").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows(eventCols).
			AddRow("evt-2", "org-1", "Later", (*string)(nil), "Hall", when.Add(48*time.Hour), (*time.Time)(nil),
				(*int)(nil), (*int)(nil), 0.0, "INR", true, when).
			AddRow("evt-1", "org-1", "Sooner", (*string)(nil), "Hall", when, (*time.Time)(nil),
				intPtr(5), intPtr(0), 0.0, "INR", false, when))

	events, err := NewEventRepository(mock).ListByOrganizer(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Later", events[0].Title)
	assert.False(t, events[0].Bounded())
	assert.True(t, events[1].IsFull())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeactivateOwnership(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		exists   bool
		want     error
	}{
		{name: "owner", affected: 1, want: nil},
		{name: "someone else's event", affected: 0, exists: true, want: model.ErrForbidden},
		{name: "missing event", affected: 0, exists: false, want: model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec("UPDATE events SET is_active = false").
				WithArgs("evt-1", "org-1").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))
			if tt.affected == 0 {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("evt-1").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			}

			err := NewEventRepository(mock).Deactivate(context.Background(), "evt-1", "org-1")
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventDelete(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("DELETE FROM events").
		WithArgs("evt-1", "org-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, NewEventRepository(mock).Delete(context.Background(), "evt-1", "org-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

func TestBookingListByUser(t *testing.T) {
	mock := newMock(t)
	when := time.Date(2027, 1, 2, 18, 0, 0, 0, time.UTC)
	token := "pass-token"

	mock.ExpectQuery("FROM bookings b").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "event_id", "title", "event_date", "location_name",
			"seats_booked", "seat_labels", "payment_utr", "qr_token", "created_at",
		}).AddRow("bk-1", "evt-1", "Gig", when, "Hall", 2, []string{"A1", "A2"}, "UTR12345678", &token, when))

	passes, err := NewBookingRepository(mock).ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, "bk-1", passes[0].BookingID)
	assert.Equal(t, []string{"A1", "A2"}, passes[0].SeatLabels)
	assert.Equal(t, token, *passes[0].QRToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingFindAdmission(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("WHERE b.id = .+ AND b.qr_token = ").
		WithArgs("bk-1", "pass-token").
		WillReturnRows(pgxmock.NewRows([]string{"name", "title"}).AddRow("Asha", "Gig"))

	a, err := NewBookingRepository(mock).FindAdmission(context.Background(), "bk-1", "pass-token")
	require.NoError(t, err)
	assert.Equal(t, &model.Admission{BookingID: "bk-1", UserName: "Asha", EventName: "Gig"}, a)
}

func TestBookingFindAdmissionRevoked(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("b.qr_token").
		WithArgs("bk-1", "pass-token").
		WillReturnRows(pgxmock.NewRows([]string{"name", "title"}))

	_, err := NewBookingRepository(mock).FindAdmission(context.Background(), "bk-1", "pass-token")
	assert.ErrorIs(t, err, model.ErrPassRevoked)
}

var revokeCols = []string{"id", "event_id", "user_id", "seats_booked", "organizer_id"}

func TestBookingRevokeByOrganizer(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("JOIN events e").
		WithArgs("bk-1").
		WillReturnRows(pgxmock.NewRows(revokeCols).AddRow("bk-1", "evt-1", "user-1", 2, "org-1"))
	mock.ExpectExec("DELETE FROM bookings").
		WithArgs("bk-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	b, err := NewBookingRepository(mock).Revoke(context.Background(), "bk-1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, "evt-1", b.EventID)
	assert.Equal(t, 2, b.SeatsBooked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRevokeRejectsOtherOrganizer(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("JOIN events e").
		WithArgs("bk-1").
		WillReturnRows(pgxmock.NewRows(revokeCols).AddRow("bk-1", "evt-1", "user-1", 2, "org-1"))

	_, err := NewBookingRepository(mock).Revoke(context.Background(), "bk-1", "org-2")
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRevokeMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("JOIN events e").
		WithArgs("bk-x").
		WillReturnRows(pgxmock.NewRows(revokeCols))

	_, err := NewBookingRepository(mock).Revoke(context.Background(), "bk-x", "org-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// ─── Users ────────────────────────────────────────────────────────────────────

func TestUserCreateDuplicate(t *testing.T) {
	mock := newMock(t)
	email := "asha@example.com"
	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "Asha", &email, (*string)(nil), "hash", model.RoleUser, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := NewUserRepository(mock).Create(context.Background(), &model.User{
		Name: "Asha", Email: &email, PasswordHash: "hash", Role: model.RoleUser,
	})
	assert.ErrorIs(t, err, model.ErrDuplicateUser)
}

func TestUserFindByLogin(t *testing.T) {
	mock := newMock(t)
	email := "asha@example.com"
	when := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE email = .+ OR phone = ").
		WithArgs(email).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "phone", "password_hash", "role", "created_at"}).
			AddRow("user-1", "Asha", &email, (*string)(nil), "hash", model.RoleUser, when))

	u, err := NewUserRepository(mock).FindByLogin(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Nil(t, u.Phone)
}

func TestUserFindByLoginUnknown(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM users").
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "phone", "password_hash", "role", "created_at"}))

	_, err := NewUserRepository(mock).FindByLogin(context.Background(), "nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRollbackIgnoresClosedTx(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	assert.NoError(t, rollback(ctx, tx))
}
