package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	Deactivate(ctx context.Context, id, organizerID string) error
	Delete(ctx context.Context, id, organizerID string) error
}

// CreateEventRequest is the body of POST /api/events.
//
// TotalSeats absent or not positive creates an event with unbounded capacity.
type CreateEventRequest struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Description  *string    `json:"description"`
	LocationName string     `json:"location_name" validate:"required,max=500"`
	EventDate    time.Time  `json:"event_date" validate:"required"`
	EndDate      *time.Time `json:"end_date"`
	TotalSeats   *int       `json:"total_seats"`
	PricePerSeat float64    `json:"price_per_seat" validate:"gte=0"`
	Currency     string     `json:"currency" validate:"omitempty,min=3,max=10"`
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events EventStore
	logger *slog.Logger
	now    func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, logger *slog.Logger) *EventService {
	return &EventService{events: events, logger: logger, now: time.Now}
}

// CreateEvent validates the request and creates the event for organizerID.
func (s *EventService) CreateEvent(ctx context.Context, organizerID string, req CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.LocationName = strings.TrimSpace(req.LocationName)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := check(req); err != nil {
		return nil, err
	}
	if !req.EventDate.After(s.now()) {
		return nil, model.Invalid("event_date", "Invalid event_date. Events must be scheduled in the future.")
	}
	if req.EndDate != nil && !req.EndDate.After(req.EventDate) {
		return nil, model.Invalid("end_date", "Invalid end_date. It must be after event_date.")
	}

	e := &model.Event{
		OrganizerID:  organizerID,
		Title:        req.Title,
		Description:  req.Description,
		LocationName: req.LocationName,
		EventDate:    req.EventDate.UTC(),
		EndDate:      req.EndDate,
		PricePerSeat: req.PricePerSeat,
		Currency:     req.Currency,
	}
	if req.TotalSeats != nil && *req.TotalSeats > 0 {
		seats := *req.TotalSeats
		e.TotalSeats = &seats
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("event created", "event_id", e.ID, "organizer_id", organizerID, "bounded", e.Bounded())
	return e, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if err := checkID(id, "Event"); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, id)
}

// ListOrganizerEvents returns the organizer's events, never nil.
func (s *EventService) ListOrganizerEvents(ctx context.Context, organizerID string) ([]model.Event, error) {
	events, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// DeactivateEvent stops further bookings for an event the organizer owns.
func (s *EventService) DeactivateEvent(ctx context.Context, id, organizerID string) error {
	if err := checkID(id, "Event"); err != nil {
		return err
	}
	if err := s.events.Deactivate(ctx, id, organizerID); err != nil {
		return err
	}
	s.logger.Info("event deactivated", "event_id", id, "organizer_id", organizerID)
	return nil
}

// DeleteEvent removes an event the organizer owns, along with its bookings.
func (s *EventService) DeleteEvent(ctx context.Context, id, organizerID string) error {
	if err := checkID(id, "Event"); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id, organizerID); err != nil {
		return err
	}
	s.logger.Info("event deleted", "event_id", id, "organizer_id", organizerID)
	return nil
}
