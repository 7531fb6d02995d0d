package jwt_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	infrajwt "github.com/north-cloud/webunpack/infrastructure/jwt"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()

	claims := gojwt.RegisteredClaims{Subject: "user_123", ExpiresAt: gojwt.NewNumericDate(exp)}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestInspect(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := infrajwt.Inspect(signed(t, exp))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if claims.Subject != "user_123" || !claims.ExpiresAt.Equal(exp) {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := infrajwt.Inspect("opaque-api-key"); !errors.Is(err, infrajwt.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestCheckExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", signed(t, now.Add(time.Hour)), false},
		{"expired", signed(t, now.Add(-time.Minute)), true},
		{"inside skew", signed(t, now.Add(10*time.Second)), true},
		{"opaque", "sk_live_abc", false},
	}

	for _, tt := range tests {
		err := infrajwt.CheckExpiry(tt.token, now, 30*time.Second)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, infrajwt.ErrExpired) {
			t.Errorf("%s: err = %v, want ErrExpired", tt.name, err)
		}
	}
}

func TestBearerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	valid := signed(t, time.Now().Add(time.Hour))
	expired := signed(t, time.Now().Add(-time.Hour))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantToken  string
	}{
		{"no header", "", http.StatusOK, ""},
		{"valid", "Bearer " + valid, http.StatusOK, valid},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, valid},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(infrajwt.BearerMiddleware(0))

			var got string
			router.GET("/api", func(c *gin.Context) {
				got, _ = infrajwt.TokenFromContext(c)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got != tt.wantToken {
				t.Errorf("token = %q, want %q", got, tt.wantToken)
			}
		})
	}
}
