package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/utils"
)

// AuthMiddleware gates the dashboard API behind a static service key. User
// authentication and sessions are handled upstream; this is only the
// service-to-service surface check.
func AuthMiddleware(cfg *config.APIConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey != "" && apiKey == cfg.APIKey {
			c.Next()
			return
		}

		c.JSON(401, gin.H{
			"error":      utils.NewUnauthorizedError(),
			"request_id": c.GetString("request_id"),
			"timestamp":  time.Now().Format(time.RFC3339),
		})
		c.Abort()
	}
}
