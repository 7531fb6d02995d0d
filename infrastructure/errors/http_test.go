package errors_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	infraerrors "github.com/north-cloud/webunpack/infrastructure/errors"
)

func response(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    int
		body    string
		wantNil bool
		wantMsg string
	}{
		{"success", http.StatusOK, `{}`, true, ""},
		{"detail string", http.StatusBadRequest, `{"detail":"Invalid site type"}`, false, "Invalid site type"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad url"}]}`, false, "field required; bad url"},
		{"message", http.StatusForbidden, `{"message":"Usage limit reached"}`, false, "Usage limit reached"},
		{"detail wins over message", http.StatusBadRequest, `{"detail":"d","message":"m"}`, false, "d"},
		{"non json", http.StatusBadGateway, `<html>bad gateway</html>`, false, "HTTP 502: Bad Gateway"},
		{"empty", http.StatusInternalServerError, ``, false, "HTTP 500: Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := infraerrors.ParseHTTPError(response(tt.code, tt.body))
			if tt.wantNil {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if code, ok := infraerrors.GetHTTPStatusCode(err); !ok || code != tt.code {
				t.Errorf("status = %d/%v, want %d", code, ok, tt.code)
			}
		})
	}
}
