package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/ticketpass/internal/messaging"
	"github.com/Shivanand-hulikatti/ticketpass/internal/metrics"
	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/pass"
	"github.com/Shivanand-hulikatti/ticketpass/internal/reservation"
)

// publishTimeout bounds post-commit event publication.
const publishTimeout = 3 * time.Second

// Reserver runs one reservation transaction.
type Reserver interface {
	Reserve(ctx context.Context, req reservation.Request) (*reservation.Result, error)
}

// BookingStore reads and revokes committed bookings.
type BookingStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.PassSummary, error)
	Revoke(ctx context.Context, bookingID, organizerID string) (*model.Booking, error)
}

// CreateBookingRequest is the body of POST /api/bookings.
//
// SeatsRequested defaults to the number of seat labels, or 1 without labels.
type CreateBookingRequest struct {
	EventID        string   `json:"event_id" validate:"required"`
	SeatsRequested *int     `json:"seats_requested"`
	PaymentUTR     string   `json:"payment_utr" validate:"required"`
	Seats          []string `json:"seats" validate:"omitempty,max=100,dive,required,max=16"`
}

// Receipt is a committed booking as returned to the purchaser.
type Receipt struct {
	Booking        *model.Booking
	EventTitle     string
	SeatsRemaining *int
	QRImageURL     string
}

// BookingService handles purchases, pass listing and revocation.
type BookingService struct {
	reserver  Reserver
	bookings  BookingStore
	publisher messaging.Publisher
	metrics   *metrics.Recorder
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewBookingService constructs a BookingService. timeout bounds each
// reservation transaction; zero leaves it to the caller's context.
func NewBookingService(
	reserver Reserver,
	bookings BookingStore,
	publisher messaging.Publisher,
	recorder *metrics.Recorder,
	logger *slog.Logger,
	timeout time.Duration,
) *BookingService {
	if publisher == nil {
		publisher = messaging.Nop{}
	}
	return &BookingService{
		reserver:  reserver,
		bookings:  bookings,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Create books seats for holderID and returns the booking with its pass.
//
// Create is not idempotent. A client that retries after a lost response
// books again.
func (s *BookingService) Create(ctx context.Context, holderID string, req CreateBookingRequest) (*Receipt, error) {
	start := s.now()
	seats := 1
	if len(req.Seats) > 0 {
		seats = len(req.Seats)
	}
	if req.SeatsRequested != nil {
		seats = *req.SeatsRequested
	}

	if err := check(req); err != nil {
		s.metrics.Booking(metrics.OutcomeInvalid, seats, s.now().Sub(start))
		return nil, err
	}
	if err := checkID(req.EventID, "Event"); err != nil {
		s.metrics.Booking(metrics.OutcomeInvalid, seats, s.now().Sub(start))
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.reserver.Reserve(ctx, reservation.Request{
		EventID:    req.EventID,
		HolderID:   holderID,
		Seats:      seats,
		SeatLabels: req.Seats,
		PaymentUTR: req.PaymentUTR,
	})
	if err != nil {
		outcome := bookingOutcome(err)
		s.metrics.Booking(outcome, seats, s.now().Sub(start))
		if outcome == metrics.OutcomeError {
			state, _ := reservation.FailedAt(err)
			s.logger.Error("booking failed", "event_id", req.EventID, "holder_id", holderID,
				"state", state.String(), "error", err)
		}
		return nil, err
	}
	s.metrics.Booking(metrics.OutcomeCommitted, seats, res.Duration)

	receipt := &Receipt{
		Booking:        res.Booking,
		EventTitle:     res.EventTitle,
		SeatsRemaining: res.SeatsRemaining,
	}
	// Already committed: a rendering failure only drops the inline image.
	if url, err := pass.RenderDataURL(res.Pass); err != nil {
		s.logger.Warn("failed to render pass image", "booking_id", res.Booking.ID, "error", err)
	} else {
		receipt.QRImageURL = url
	}

	s.publish(ctx, messaging.BookingEvent{
		Type:       messaging.BookingCreated,
		BookingID:  res.Booking.ID,
		EventID:    res.Booking.EventID,
		UserID:     holderID,
		Seats:      res.Booking.SeatsBooked,
		PaymentUTR: res.Booking.PaymentUTR,
		OccurredAt: res.Booking.CreatedAt,
	})
	return receipt, nil
}

// ListMine returns the holder's passes, never nil.
func (s *BookingService) ListMine(ctx context.Context, holderID string) ([]model.PassSummary, error) {
	passes, err := s.bookings.ListByUser(ctx, holderID)
	if err != nil {
		return nil, err
	}
	if passes == nil {
		passes = []model.PassSummary{}
	}
	return passes, nil
}

// Revoke deletes a booking of one of the organizer's events. Its pass stops
// verifying immediately. Seats are not released back to the event.
func (s *BookingService) Revoke(ctx context.Context, bookingID, organizerID string) error {
	if err := checkID(bookingID, "Booking"); err != nil {
		return err
	}
	b, err := s.bookings.Revoke(ctx, bookingID, organizerID)
	if err != nil {
		return err
	}
	s.metrics.Revocation()
	s.logger.Info("booking revoked", "booking_id", b.ID, "event_id", b.EventID, "organizer_id", organizerID)

	s.publish(ctx, messaging.BookingEvent{
		Type:       messaging.BookingRevoked,
		BookingID:  b.ID,
		EventID:    b.EventID,
		UserID:     b.UserID,
		Seats:      b.SeatsBooked,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// publish sends ev on a context detached from the request's cancellation.
// Failures are logged, never returned.
func (s *BookingService) publish(ctx context.Context, ev messaging.BookingEvent) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, ev); err != nil {
		s.logger.Warn("failed to publish booking event", "type", ev.Type, "booking_id", ev.BookingID, "error", err)
	}
}

func bookingOutcome(err error) string {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return metrics.OutcomeInvalid
	case errors.Is(err, model.ErrInsufficientCapacity):
		return metrics.OutcomeSoldOut
	case errors.Is(err, model.ErrEventInactive):
		return metrics.OutcomeInactive
	case errors.Is(err, model.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
