package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/ticketpass/internal/metrics"
	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/pass"
)

// Reasons a pass is turned away at the door.
const (
	ReasonExpired   = "expired"
	ReasonTampered  = "tampered"
	ReasonMalformed = "malformed"
	ReasonRevoked   = "revoked"
)

// RejectedPassError explains why a pass was refused. Its message is safe to
// show to door staff and never includes booking data.
type RejectedPassError struct {
	Reason string
	Err    error
}

func (e *RejectedPassError) Error() string {
	switch e.Reason {
	case ReasonExpired:
		return "QR Token has expired."
	case ReasonRevoked:
		return "No matching booking found for this token. Token may be revoked."
	default:
		return "Invalid or corrupted QR Token."
	}
}

func (e *RejectedPassError) Unwrap() error { return e.Err }

// PassVerifier checks pass signatures.
type PassVerifier interface {
	Verify(token string) (*pass.Claims, error)
}

// AdmissionFinder looks up the live booking a pass belongs to.
type AdmissionFinder interface {
	FindAdmission(ctx context.Context, bookingID, token string) (*model.Admission, error)
}

// VerificationService checks scanned passes. It never writes, so the same
// token may be verified any number of times with the same result.
type VerificationService struct {
	passes   PassVerifier
	bookings AdmissionFinder
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(passes PassVerifier, bookings AdmissionFinder, recorder *metrics.Recorder, logger *slog.Logger) *VerificationService {
	return &VerificationService{passes: passes, bookings: bookings, metrics: recorder, logger: logger}
}

// Verify admits token if its signature holds and the booking it names still
// carries it.
func (s *VerificationService) Verify(ctx context.Context, token string) (*model.Admission, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		s.metrics.Verification(metrics.ResultMalformed)
		return nil, model.Invalid("qr_token", "Missing qr_token in request body.")
	}

	claims, err := s.passes.Verify(token)
	if err != nil {
		reason := ReasonTampered
		switch {
		case errors.Is(err, pass.ErrExpired):
			reason = ReasonExpired
		case errors.Is(err, pass.ErrMalformed):
			reason = ReasonMalformed
		}
		s.metrics.Verification(reason)
		s.logger.Info("pass rejected", "reason", reason)
		return nil, &RejectedPassError{Reason: reason, Err: err}
	}

	admission, err := s.bookings.FindAdmission(ctx, claims.BookingID, token)
	if err != nil {
		if errors.Is(err, model.ErrPassRevoked) {
			s.metrics.Verification(metrics.ResultRevoked)
			s.logger.Info("pass rejected", "reason", ReasonRevoked, "booking_id", claims.BookingID)
			return nil, &RejectedPassError{Reason: ReasonRevoked, Err: err}
		}
		s.metrics.Verification(metrics.ResultInternalError)
		return nil, err
	}

	s.metrics.Verification(metrics.ResultValid)
	s.logger.Info("pass admitted", "booking_id", claims.BookingID, "event_id", claims.EventID)
	return admission, nil
}
