// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/ticketpass/internal/auth"
	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/service"
)

// AuthService registers and signs in users.
type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.Session, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.Session, error)
}

// EventService manages events.
type EventService interface {
	CreateEvent(ctx context.Context, organizerID string, req service.CreateEventRequest) (*model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListOrganizerEvents(ctx context.Context, organizerID string) ([]model.Event, error)
	DeactivateEvent(ctx context.Context, id, organizerID string) error
	DeleteEvent(ctx context.Context, id, organizerID string) error
}

// BookingService sells seats and manages passes.
type BookingService interface {
	Create(ctx context.Context, holderID string, req service.CreateBookingRequest) (*service.Receipt, error)
	ListMine(ctx context.Context, holderID string) ([]model.PassSummary, error)
	Revoke(ctx context.Context, bookingID, organizerID string) error
}

// PassVerifier checks scanned passes.
type PassVerifier interface {
	Verify(ctx context.Context, token string) (*model.Admission, error)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func isValidation(err error) bool {
	var verr *model.ValidationError
	return errors.As(err, &verr)
}

func validationMessage(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

// writeValidation reports err as a 400 if it is a validation failure.
func writeValidation(w http.ResponseWriter, err error) bool {
	if !isValidation(err) {
		return false
	}
	writeError(w, http.StatusBadRequest, validationMessage(err))
	return true
}

// writeInternal logs err with the request id and hides it from the client.
func writeInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, msg string) {
	logger.ErrorContext(r.Context(), msg, "error", err, "method", r.Method, "path", r.URL.Path,
		"request_id", requestID(r))
	writeError(w, http.StatusInternalServerError, msg)
}

// caller returns the authenticated identity. Routes that call it sit behind
// auth.Authenticate, so a missing identity is answered with 401.
func caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized. Missing or invalid Bearer token.")
	}
	return id, ok
}
