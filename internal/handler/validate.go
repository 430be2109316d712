package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/ticketpass/internal/service"
)

// ValidateHandler answers door scans.
type ValidateHandler struct {
	passes PassVerifier
	logger *slog.Logger
}

// NewValidateHandler constructs a ValidateHandler.
func NewValidateHandler(passes PassVerifier, logger *slog.Logger) *ValidateHandler {
	return &ValidateHandler{passes: passes, logger: logger}
}

type validateRequest struct {
	QRToken string `json:"qr_token"`
}

type validateResponse struct {
	Valid     bool   `json:"valid"`
	UserName  string `json:"user_name,omitempty"`
	EventName string `json:"event_name,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Validate handles POST /api/validate
// Repeated scans of a live pass all succeed.
func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, validateResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	admission, err := h.passes.Verify(r.Context(), req.QRToken)
	if err != nil {
		var rejected *service.RejectedPassError
		switch {
		case errors.As(err, &rejected):
			status := http.StatusBadRequest
			if rejected.Reason == service.ReasonRevoked {
				status = http.StatusNotFound
			}
			writeJSON(w, status, validateResponse{Error: rejected.Error()})
		case isValidation(err):
			writeJSON(w, http.StatusBadRequest, validateResponse{Error: validationMessage(err)})
		default:
			const msg = "Internal server error while validating token."
			h.logger.ErrorContext(r.Context(), msg, "error", err, "request_id", requestID(r))
			writeJSON(w, http.StatusInternalServerError, validateResponse{Error: msg})
		}
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:     true,
		UserName:  admission.UserName,
		EventName: admission.EventName,
	})
}
