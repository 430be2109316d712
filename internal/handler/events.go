package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/service"
)

// EventHandler holds the HTTP handlers for events.
type EventHandler struct {
	svc    EventService
	logger *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// CreateEvent handles POST /api/events
// Creates a new event owned by the calling organizer.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req service.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), id.UserID, req)
	if err != nil {
		switch {
		case writeValidation(w, err):
		case errors.Is(err, model.ErrActiveEventLimit):
			writeError(w, http.StatusForbidden, fmt.Sprintf(
				"Limit exceeded. Organizers can have a maximum of %d active events at a time.",
				model.MaxActiveEventsPerOrganizer))
		case errors.Is(err, model.ErrForbidden):
			writeError(w, http.StatusForbidden, "Forbidden. Endpoint requires organizer privileges.")
		default:
			writeInternal(w, r, h.logger, err, "Internal server error while creating event.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Event created successfully.",
		"event":   event,
	})
}

// GetEvent handles GET /api/events/{id}
// Returns a single event by its UUID.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case writeValidation(w, err):
		case errors.Is(err, model.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found.")
		default:
			writeInternal(w, r, h.logger, err, "Internal Server Error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

// ListOrganizerEvents handles GET /api/organizer/events
func (h *EventHandler) ListOrganizerEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	events, err := h.svc.ListOrganizerEvents(r.Context(), id.UserID)
	if err != nil {
		writeInternal(w, r, h.logger, err, "Internal server error while fetching events.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// DeactivateEvent handles PATCH /api/events/{id}/deactivate
// Stops further bookings; existing passes stay valid.
func (h *EventHandler) DeactivateEvent(w http.ResponseWriter, r *http.Request) {
	h.ownerAction(w, r, h.svc.DeactivateEvent, "Event deactivated.")
}

// DeleteEvent handles DELETE /api/events/{id}
// Removes the event and every booking for it.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	h.ownerAction(w, r, h.svc.DeleteEvent, "Event deleted.")
}

func (h *EventHandler) ownerAction(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, id, organizerID string) error, done string) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	err := action(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		switch {
		case writeValidation(w, err):
		case errors.Is(err, model.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found.")
		case errors.Is(err, model.ErrForbidden):
			writeError(w, http.StatusForbidden, "Forbidden. You do not own this event.")
		default:
			writeInternal(w, r, h.logger, err, "Internal server error while updating event.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": done})
}
