package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

const eventColumns = `id, organizer_id, title, description, location_name, event_date, end_date,
	total_seats, seats_available, price_per_seat::float8, currency, is_active, created_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db  DB
	now func() time.Time
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db DB) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

// Create inserts e on behalf of its organizer, filling in the generated id,
// timestamps and initial seat count.
//
// The organizer's user row is locked first so two concurrent creates by the
// same organizer cannot both slip under the active-event cap.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = rollback(ctx, tx) }()

	var role string
	err = tx.QueryRow(ctx,
		`SELECT role FROM users WHERE id = $1 FOR UPDATE`,
		e.OrganizerID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrForbidden
		}
		return fmt.Errorf("lock organizer: %w", err)
	}
	if role != model.RoleOrganizer {
		return model.ErrForbidden
	}

	var active int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND is_active`,
		e.OrganizerID,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("count active events: %w", err)
	}
	if active >= model.MaxActiveEventsPerOrganizer {
		return model.ErrActiveEventLimit
	}

	e.ID = uuid.New().String()
	e.IsActive = true
	e.CreatedAt = r.now().UTC()
	e.SeatsAvailable = nil
	if e.TotalSeats != nil {
		seats := *e.TotalSeats
		e.SeatsAvailable = &seats
	}
	if e.Currency == "" {
		e.Currency = "INR"
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO events (id, organizer_id, title, description, location_name, event_date, end_date,
		                     total_seats, seats_available, price_per_seat, currency, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.OrganizerID, e.Title, e.Description, e.LocationName, e.EventDate, e.EndDate,
		e.TotalSeats, e.SeatsAvailable, e.PricePerSeat, e.Currency, e.IsActive, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns a single event or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListByOrganizer returns every event owned by organizerID, latest first.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE organizer_id = $1
		 ORDER BY event_date DESC`,
		organizerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Deactivate marks an event inactive. Only its organizer may do so.
// Deactivating an already inactive event is not an error.
func (r *EventRepository) Deactivate(ctx context.Context, id, organizerID string) error {
	return r.ownedExec(ctx, id, organizerID,
		`UPDATE events SET is_active = false WHERE id = $1 AND organizer_id = $2`)
}

// Delete removes an event and, through the foreign key, its bookings.
func (r *EventRepository) Delete(ctx context.Context, id, organizerID string) error {
	return r.ownedExec(ctx, id, organizerID,
		`DELETE FROM events WHERE id = $1 AND organizer_id = $2`)
}

// ownedExec runs sql against an event owned by organizerID, telling a missing
// event apart from someone else's.
func (r *EventRepository) ownedExec(ctx context.Context, id, organizerID, sql string) error {
	tag, err := r.db.Exec(ctx, sql, id, organizerID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if exists {
		return model.ErrForbidden
	}
	return model.ErrNotFound
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.LocationName, &e.EventDate, &e.EndDate,
		&e.TotalSeats, &e.SeatsAvailable, &e.PricePerSeat, &e.Currency, &e.IsActive, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
