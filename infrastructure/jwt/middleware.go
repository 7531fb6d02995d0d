package jwt

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const bearerTokenKey = "bearer_token"

// BearerMiddleware extracts the caller's bearer token for forwarding to the
// backend. Requests without a header fall through so a configured default
// token can apply; expired JWTs and malformed headers are rejected.
func BearerMiddleware(skew time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" || strings.HasPrefix(c.Request.URL.Path, "/health/") {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}
		token = strings.TrimSpace(token)

		if err := CheckExpiry(token, time.Now(), skew); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}

		c.Set(bearerTokenKey, token)
		c.Next()
	}
}

// TokenFromContext returns the bearer token stored by BearerMiddleware.
func TokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(bearerTokenKey)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok && token != ""
}
