package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"push-manager/core/clock"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("session token secret is not configured")
	// ErrInvalid is returned for tokens that fail verification.
	ErrInvalid = errors.New("invalid session token")
)

// Claims binds a token to a single subscriber.
type Claims struct {
	ExternalID string `json:"external_id"`
	jwt.RegisteredClaims
}

// Issuer creates and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewIssuer creates an issuer from cfg. clk may be nil for the real clock.
func NewIssuer(cfg Config, clk clock.Clock) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if clk == nil {
		clk = clock.Real()
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(cfg.Secret), ttl: ttl, clock: clk}, nil
}

// Generate signs a token for externalID.
func (i *Issuer) Generate(externalID string) (string, time.Time, error) {
	if externalID == "" {
		return "", time.Time{}, errors.New("external id cannot be empty")
	}

	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		ExternalID: externalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   externalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies raw, which may carry a "Bearer " prefix, and returns
// its claims.
func (i *Issuer) Validate(raw string) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock.Now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ExternalID == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
