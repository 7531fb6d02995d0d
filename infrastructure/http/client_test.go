package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	infrahttp "github.com/north-cloud/webunpack/infrastructure/http"
)

func TestNewClient_StampsRequestIDAndUserAgent(t *testing.T) {
	t.Parallel()

	var gotID, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(infrahttp.HeaderRequestID)
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := infrahttp.NewClient(&infrahttp.ClientConfig{UserAgent: "webunpack-test"})
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if len(gotID) != 36 {
		t.Errorf("request id = %q, want a UUID", gotID)
	}
	if gotUA != "webunpack-test" {
		t.Errorf("user agent = %q", gotUA)
	}
}

func TestNewClient_PreservesCallerRequestID(t *testing.T) {
	t.Parallel()

	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(infrahttp.HeaderRequestID)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	req.Header.Set(infrahttp.HeaderRequestID, "upstream-id")

	resp, err := infrahttp.NewClient(nil).Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if gotID != "upstream-id" {
		t.Errorf("request id = %q, want upstream-id", gotID)
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	t.Parallel()

	if got := infrahttp.NewClient(nil).Timeout; got != infrahttp.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, infrahttp.DefaultTimeout)
	}
}
