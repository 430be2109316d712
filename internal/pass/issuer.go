// Package pass mints and verifies the signed entry passes handed out with
// every booking.
//
// A pass is an HS256 JWT whose claims bind a booking to its holder and event.
// Verifying the signature proves the claims were not altered after minting;
// it does not prove the booking still exists. That second check belongs to
// whoever owns the booking records.
package pass

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL keeps passes valid well past any plausible event date so entry
// is never gated on the clock.
const DefaultTTL = 365 * 24 * time.Hour

var (
	// ErrExpired is returned for a correctly signed pass past its expiry.
	ErrExpired = errors.New("pass has expired")
	// ErrTampered is returned when the signature does not check out.
	ErrTampered = errors.New("pass signature is invalid")
	// ErrMalformed is returned when the token cannot be parsed or lacks a
	// booking reference.
	ErrMalformed = errors.New("pass is malformed")
)

// Claims is the payload of a pass.
type Claims struct {
	BookingID string   `json:"booking_id"`
	UserID    string   `json:"user_id"`
	EventID   string   `json:"event_id"`
	Seats     []string `json:"seats,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies passes with a server-held secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer. A non-positive ttl selects DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Mint signs a pass for a booking.
func (i *Issuer) Mint(bookingID, holderID, eventID string, seats []string) (string, error) {
	if bookingID == "" || holderID == "" || eventID == "" {
		return "", fmt.Errorf("mint pass: booking, holder and event ids are required")
	}
	now := i.now()
	claims := &Claims{
		BookingID: bookingID,
		UserID:    holderID,
		EventID:   eventID,
		Seats:     seats,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("mint pass: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token. It never touches storage.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return nil, ErrTampered
	default:
		return nil, ErrMalformed
	}
	if claims.BookingID == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}
