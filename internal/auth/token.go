// Package auth supplies bearer tokens to the backend client.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	infrajwt "github.com/north-cloud/webunpack/infrastructure/jwt"
)

var (
	// ErrNoToken is returned when an authenticated call has no token to send.
	ErrNoToken = errors.New("not authenticated")
	// ErrTokenExpired is returned when the token's exp claim has passed.
	ErrTokenExpired = errors.New("session expired")
)

// TokenProvider yields the bearer token for the current user.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to TokenProvider.
type ProviderFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f ProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static returns a provider that always yields token. An empty token yields ErrNoToken.
func Static(token string) TokenProvider {
	token = strings.TrimSpace(token)
	return ProviderFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	})
}

// Env returns a provider that reads variable on every call, so a token
// refreshed by an external helper is picked up without a restart.
func Env(variable string) TokenProvider {
	return ProviderFunc(func(context.Context) (string, error) {
		token := strings.TrimSpace(os.Getenv(variable))
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	})
}

// Chain tries each provider in order and returns the first token found.
func Chain(providers ...TokenProvider) TokenProvider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		for _, p := range providers {
			if p == nil {
				continue
			}
			token, err := p.Token(ctx)
			if err == nil {
				return token, nil
			}
			if !errors.Is(err, ErrNoToken) {
				return "", err
			}
		}
		return "", ErrNoToken
	})
}

// ExpiryChecked wraps a provider and rejects JWTs that expire within Skew.
type ExpiryChecked struct {
	Provider TokenProvider
	Skew     time.Duration
	Now      func() time.Time
}

// Token returns the wrapped token, or ErrTokenExpired.
func (e ExpiryChecked) Token(ctx context.Context) (string, error) {
	token, err := e.Provider.Token(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if err := infrajwt.CheckExpiry(token, now(), e.Skew); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}
	return token, nil
}

type ctxKey struct{}

// WithToken stores a per-request token override in ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, token)
}

// FromContext is a provider reading the override set by WithToken.
func FromContext() TokenProvider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		if token, ok := ctx.Value(ctxKey{}).(string); ok && token != "" {
			return token, nil
		}
		return "", ErrNoToken
	})
}
