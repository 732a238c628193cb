// Package middleware provides Gin middleware for the live status API:
// API-key auth and slog request logging, grounded on the teacher's
// internal/api/middleware package.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/dnsblast/internal/statusapi/models"
)

// RequireAPIKey enforces a shared-secret header. Clients must send
// X-API-Key: <key>. An empty expected key disables the check.
func RequireAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-API-Key")
		if expected == "" || got == expected {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
	}
}
