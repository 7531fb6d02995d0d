package client

import (
	"context"
	"net/http"

	"github.com/north-cloud/webunpack/internal/domain"
)

// Me fetches the caller's profile and usage counters.
func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	return doJSON[domain.UserProfile](ctx, c, call{
		op:      opMe,
		method:  http.MethodGet,
		path:    "/me",
		auth:    true,
		retried: true,
	})
}

// MySubmissions lists the caller's contact tickets and feedback.
func (c *Client) MySubmissions(ctx context.Context) (*domain.UserSubmissions, error) {
	return doJSON[domain.UserSubmissions](ctx, c, call{
		op:      opMySubmissions,
		method:  http.MethodGet,
		path:    "/my-submissions",
		auth:    true,
		retried: true,
	})
}
