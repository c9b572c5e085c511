// Package token mints and parses the signed identity claims shared between
// the identity service and the services that trust it.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-task-manager/internal/model"
)

type Option func(*Codec)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// Codec signs claims with a process-wide HMAC key. The key never changes
// after construction.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type tokenClaims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// New builds a codec. A ttl of zero issues tokens without an exp claim.
func New(secret string, ttl time.Duration, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token signing key is required")
	}
	if ttl < 0 {
		return nil, errors.New("token ttl cannot be negative")
	}

	c := &Codec{key: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Issue signs a fresh claim for the identity.
func (c *Codec) Issue(identity model.Identity) (string, error) {
	now := c.now().UTC()

	claims := tokenClaims{
		UserID:   identity.UserID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(identity.UserID, 10),
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse verifies the signature and the expiry. Errors are one of
// model.ErrTokenMalformed, model.ErrTokenInvalidSignature, model.ErrTokenExpired.
func (c *Codec) Parse(raw string) (model.Claims, error) {
	if raw == "" {
		return model.Claims{}, model.ErrTokenMalformed
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return model.Claims{}, classify(err)
	}

	if claims.UserID <= 0 || claims.IssuedAt == nil {
		return model.Claims{}, model.ErrTokenMalformed
	}

	out := model.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		IssuedAt: claims.IssuedAt.Time.UTC(),
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		out.ExpiresAt = &exp
	}

	return out, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return model.ErrTokenInvalidSignature
	default:
		return model.ErrTokenMalformed
	}
}
