// Package jwt inspects bearer tokens issued by the identity provider.
//
// Tokens are never verified here: the export backend owns the signing keys
// and rejects forged tokens. Inspection only lets callers fail fast on
// tokens that are already expired instead of spending a round trip.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned for tokens that are not three-part JWTs.
	ErrMalformed = errors.New("token is not a JWT")
	// ErrExpired is returned for tokens whose exp claim has passed.
	ErrExpired = errors.New("token expired")
)

// Claims is the subset of registered claims callers care about.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Inspect decodes token without verifying its signature.
func Inspect(token string) (Claims, error) {
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	c := Claims{Subject: registered.Subject, Issuer: registered.Issuer}
	if registered.ExpiresAt != nil {
		c.ExpiresAt = registered.ExpiresAt.Time
	}
	return c, nil
}

// CheckExpiry returns ErrExpired when token is a JWT that expires within
// skew of now. Opaque tokens pass unchanged.
func CheckExpiry(token string, now time.Time, skew time.Duration) error {
	claims, err := Inspect(token)
	if err != nil {
		return nil //nolint:nilerr // opaque API keys are not JWTs
	}
	if !claims.ExpiresAt.IsZero() && !now.Add(skew).Before(claims.ExpiresAt) {
		return fmt.Errorf("%w at %s", ErrExpired, claims.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}
