package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/north-cloud/webunpack/internal/domain"
)

// Contact files a support ticket. Invalid forms are rejected locally.
func (c *Client) Contact(ctx context.Context, form domain.ContactForm) (*domain.SubmissionResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return c.submit(ctx, opContact, "/contact", form)
}

// Feedback submits product feedback. Type and priority default to general
// and medium.
func (c *Client) Feedback(ctx context.Context, form domain.FeedbackForm) (*domain.SubmissionResponse, error) {
	form = form.WithDefaults()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return c.submit(ctx, opFeedback, "/feedback", form)
}

func (c *Client) submit(ctx context.Context, op, path string, body any) (*domain.SubmissionResponse, error) {
	resp, err := doJSON[domain.SubmissionResponse](ctx, c, call{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   body,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendMessageError(op, resp.Message, "Submission failed")
	}
	return resp, nil
}

// Waitlist signs email up for the waitlist. It needs no token.
func (c *Client) Waitlist(ctx context.Context, email string) (*domain.WaitlistResponse, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	resp, err := doJSON[domain.WaitlistResponse](ctx, c, call{
		op:     opWaitlist,
		method: http.MethodPost,
		path:   "/waitlist",
		body:   domain.WaitlistRequest{Email: strings.TrimSpace(email)},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendMessageError(opWaitlist, resp.Message, "Failed to join waitlist")
	}
	return resp, nil
}
