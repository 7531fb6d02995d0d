package client_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/north-cloud/webunpack/internal/auth"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/domain"
)

func TestUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "quota",
			err:  &client.APIError{Kind: client.KindQuotaExceeded, Message: "limit"},
			want: "You've reached your usage limit. Please upgrade your plan to continue.",
		},
		{
			name: "wrapped download",
			err:  fmt.Errorf("save: %w", &client.APIError{Kind: client.KindDownload}),
			want: "There was an issue preparing your download. Please try again.",
		},
		{
			name: "missing token",
			err:  auth.ErrNoToken,
			want: "Your session has expired. Please sign in again.",
		},
		{
			name: "plain error",
			err:  errors.New("kaboom"),
			want: "Something went wrong. Please try again or contact support if the problem persists.",
		},
		{
			name: "form error",
			err:  &domain.FormError{Field: "email", Message: domain.MsgEmailInvalid},
			want: domain.MsgEmailInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, client.UserMessage(tt.err))
		})
	}
}

func TestClassifyJobFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want client.Kind
	}{
		{"Connection refused by origin", client.KindNetwork},
		{"Navigation timeout of 30000 ms exceeded", client.KindTimeout},
		{"HTTP 403 from origin", client.KindForbidden},
		{"Page not found", client.KindNotFound},
		{"Monthly quota exhausted", client.KindQuotaExceeded},
		{"Invalid URL supplied", client.KindInvalidInput},
		{"Failed to extract assets", client.KindExtraction},
		{"Could not write zip archive for download", client.KindDownload},
		{"No pages discovered", client.KindDiscovery},
		// "file" alone must not be read as a download problem.
		{"Failed to parse file index.html", client.KindExtraction},
		// Substrings inside other words do not count.
		{"unlimited retries used", client.KindExtraction},
		{"Something odd happened", client.KindExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, client.JobFailureKind(tt.msg))
		})
	}
}

func TestClassifyJobFailure_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, client.MsgJobFailed, client.ClassifyJobFailure("  "))
	assert.Equal(t,
		"We couldn't extract content from this website. It may be protected or temporarily unavailable.",
		client.ClassifyJobFailure("Failed to parse file index.html"))
}

func TestAPIError_Temporary(t *testing.T) {
	t.Parallel()

	assert.True(t, (&client.APIError{Kind: client.KindNetwork}).Temporary())
	assert.True(t, (&client.APIError{Kind: client.KindExtraction, StatusCode: 502}).Temporary())
	assert.False(t, (&client.APIError{Kind: client.KindNotFound, StatusCode: 404}).Temporary())
}
