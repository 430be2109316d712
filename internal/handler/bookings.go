package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/service"
)

// BookingHandler serves purchases and pass management.
type BookingHandler struct {
	svc    BookingService
	logger *slog.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

type bookingResponse struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	EventTitle      string    `json:"event_title"`
	SeatsBooked     int       `json:"seats_booked"`
	SeatLabels      []string  `json:"seat_labels"`
	SeatsRemaining  *int      `json:"seats_remaining"`
	PaymentUTR      string    `json:"payment_utr"`
	PaymentVerified bool      `json:"payment_verified"`
	CreatedAt       time.Time `json:"created_at"`
	QRToken         string    `json:"qr_token"`
	QRImageURL      string    `json:"qr_image_url,omitempty"`
}

func newBookingResponse(rc *service.Receipt) bookingResponse {
	b := rc.Booking
	resp := bookingResponse{
		ID:              b.ID,
		EventID:         b.EventID,
		EventTitle:      rc.EventTitle,
		SeatsBooked:     b.SeatsBooked,
		SeatLabels:      b.SeatLabels,
		SeatsRemaining:  rc.SeatsRemaining,
		PaymentUTR:      b.PaymentUTR,
		PaymentVerified: b.PaymentVerified,
		CreatedAt:       b.CreatedAt,
		QRImageURL:      rc.QRImageURL,
	}
	if resp.SeatLabels == nil {
		resp.SeatLabels = []string{}
	}
	if b.QRToken != nil {
		resp.QRToken = *b.QRToken
	}
	return resp
}

// CreateBooking handles POST /api/bookings
// Reserves seats for the caller and returns the signed pass.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req service.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	receipt, err := h.svc.Create(r.Context(), id.UserID, req)
	if err != nil {
		var short *model.InsufficientCapacityError
		switch {
		case writeValidation(w, err):
		case errors.As(err, &short):
			writeError(w, http.StatusConflict,
				fmt.Sprintf("Insufficient seats available. Only %d seats remaining.", short.Remaining))
		case errors.Is(err, model.ErrInsufficientCapacity):
			writeError(w, http.StatusConflict, "Insufficient seats available.")
		case errors.Is(err, model.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found.")
		case errors.Is(err, model.ErrEventInactive):
			writeError(w, http.StatusBadRequest, "This event is no longer active.")
		default:
			writeInternal(w, r, h.logger, err, "Internal server error while processing booking transaction.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Booking successfully created.",
		"booking": newBookingResponse(receipt),
	})
}

// ListMyPasses handles GET /api/bookings
func (h *BookingHandler) ListMyPasses(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	passes, err := h.svc.ListMine(r.Context(), id.UserID)
	if err != nil {
		writeInternal(w, r, h.logger, err, "Internal server error while fetching passes.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"passes": passes})
}

// RevokeBooking handles DELETE /api/bookings/{id}
// The event's organizer cancels a pass; it stops verifying at once.
func (h *BookingHandler) RevokeBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	err := h.svc.Revoke(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		switch {
		case writeValidation(w, err):
		case errors.Is(err, model.ErrNotFound):
			writeError(w, http.StatusNotFound, "Booking not found.")
		case errors.Is(err, model.ErrForbidden):
			writeError(w, http.StatusForbidden, "Forbidden. You do not own the event for this booking.")
		default:
			writeInternal(w, r, h.logger, err, "Internal server error while revoking booking.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking revoked."})
}
