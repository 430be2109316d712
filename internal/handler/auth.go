package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
	"github.com/Shivanand-hulikatti/ticketpass/internal/service"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type sessionResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sess, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case writeValidation(w, err):
		case errors.Is(err, model.ErrDuplicateUser):
			writeError(w, http.StatusConflict, "A user with this email or phone already exists.")
		default:
			writeInternal(w, r, h.logger, err, "Internal server error during registration.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Message: "Registration successful", User: sess.User, Token: sess.Token})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sess, err := h.svc.Login(r.Context(), req)
	if err != nil {
		switch {
		case writeValidation(w, err):
		case errors.Is(err, model.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid login credentials.")
		default:
			writeInternal(w, r, h.logger, err, "Internal server error during login.")
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Message: "Login successful", User: sess.User, Token: sess.Token})
}
