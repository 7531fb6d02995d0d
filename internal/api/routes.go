package api

import (
	"github.com/gin-gonic/gin"

	"github.com/north-cloud/webunpack/infrastructure/jwt"
	"github.com/north-cloud/webunpack/internal/auth"
)

// SetupRoutes registers the session API. Health and metrics routes are
// registered by the infrastructure gin builder.
func SetupRoutes(router *gin.Engine, h *SessionHandler, tokens *auth.Holder) {
	session := router.Group("/api/v1/session")
	session.Use(forwardToken(tokens))

	session.GET("", h.Get)
	session.POST("/input", h.SetInput)
	session.POST("/prefill", h.Prefill)
	session.POST("/validate", h.Validate)
	session.POST("/submit", h.Submit)
	session.POST("/pages/toggle", h.TogglePage)
	session.PUT("/pages", h.SetSelection)
	session.POST("/pages/confirm", h.ConfirmPages)
	session.POST("/back", h.Back)
	session.POST("/reset", h.Reset)
	session.DELETE("/error", h.DismissError)
	session.GET("/history", h.History)
	session.DELETE("/history", h.CloseHistory)
	session.GET("/download", h.Download)
	session.GET("/events", h.Events)
}

// forwardToken makes the caller's bearer token the one used for backend
// calls: directly for the request and, through tokens, for polling.
func forwardToken(tokens *auth.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := jwt.TokenFromContext(c); ok {
			if tokens != nil {
				tokens.Set(token)
			}
			c.Request = c.Request.WithContext(auth.WithToken(c.Request.Context(), token))
		}
		c.Next()
	}
}
