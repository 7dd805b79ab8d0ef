package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrTokenExpired indicates the token's expiry instant has passed.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrTokenMalformed indicates the token is structurally invalid.
	ErrTokenMalformed = errors.New("jwt: token malformed")
	// ErrTokenSignature indicates signature verification failed.
	ErrTokenSignature = errors.New("jwt: invalid signature")
	// ErrTokenUnsupported indicates an unexpected signing method or claim set.
	ErrTokenUnsupported = errors.New("jwt: token unsupported")
)

// SessionClaims is the claim set carried by an admin session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenCodec creates and verifies self-contained signed session tokens.
// The signing secret is decoded once at construction and never replaced;
// a new codec is built if the key must change.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

const defaultTokenTTL = 24 * time.Hour

// NewTokenCodec constructs a codec from a base64-encoded secret.
func NewTokenCodec(encodedSecret string, ttl time.Duration, issuer string) (*TokenCodec, error) {
	encodedSecret = strings.TrimSpace(encodedSecret)
	if encodedSecret == "" {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}

	secret, err := base64.StdEncoding.DecodeString(encodedSecret)
	if err != nil {
		return nil, fmt.Errorf("jwt: decode signing secret: %w", err)
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt: signing secret must be at least 32 bytes, got %d", len(secret))
	}

	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &TokenCodec{
		secret: secret,
		ttl:    ttl,
		issuer: strings.TrimSpace(issuer),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the codec's time source, for tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// Lifetime returns the configured token lifetime.
func (c *TokenCodec) Lifetime() time.Duration {
	return c.ttl
}

// Issue produces a signed token for the supplied subject with
// issuedAt = now and expiresAt = now + lifetime.
func (c *TokenCodec) Issue(subject string) (string, *SessionClaims, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", nil, fmt.Errorf("jwt: subject is required")
	}

	now := c.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, claims, nil
}

// Verify checks signature integrity and expiry and returns the claims.
// Every failure maps onto one of the sentinel error classes; the classes
// exist for diagnostics only and callers treat all of them as a reject.
func (c *TokenCodec) Verify(raw string) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenSignature
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// RemainingLifetime reports how long the claims stay valid from now.
// Falls back to the configured lifetime when the expiry is missing.
func (c *TokenCodec) RemainingLifetime(claims *SessionClaims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return c.ttl
	}

	remaining := claims.ExpiresAt.Time.Sub(c.now())
	if remaining <= 0 {
		return time.Second
	}
	return remaining
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenUnsupported
	default:
		return ErrTokenUnsupported
	}
}
