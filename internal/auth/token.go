package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "freshcart"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the payload of a session token: the user id and role plus the
// registered expiry fields.
type Claims struct {
	UserID uuid.UUID `json:"id"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenManager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a token for the given identity and returns it with its expiry.
func (m *TokenManager) Issue(userID uuid.UUID, role Role) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("token: user id must not be nil")
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("token: invalid role %q", role)
	}

	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.ttl)

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: failed to sign: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies signature, algorithm, issuer and expiry. Every failure is
// reported as ErrInvalidToken wrapping the underlying cause.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: malformed claims", ErrInvalidToken)
	}

	return claims, nil
}
