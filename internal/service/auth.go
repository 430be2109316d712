package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/ticketpass/internal/auth"
	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByLogin(ctx context.Context, login string) (*model.User, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"required,oneof=user organizer"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Session is a signed-in user and their bearer token.
type Session struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// AuthService registers and signs in users.
type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Email == "" && req.Phone == "" {
		return nil, model.Invalid("email",
			"Missing required fields. Name, password, role, and either email or phone are required.")
	}
	if err := check(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Name:         req.Name,
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return s.session(u)
}

// Login checks a password against the account found by email or phone.
// Unknown accounts and wrong passwords both yield model.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	login := strings.ToLower(strings.TrimSpace(req.Email))
	if login == "" {
		login = strings.TrimSpace(req.Phone)
	}
	if login == "" || req.Password == "" {
		return nil, model.Invalid("password",
			"Missing credentials. Please provide password and either email or phone.")
	}

	u, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *AuthService) session(u *model.User) (*Session, error) {
	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Role: u.Role})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: u, Token: token}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
