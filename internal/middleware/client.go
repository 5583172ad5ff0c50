// File: internal/middleware/client.go
package middleware

import (
	"vitrine_backend/internal/common"
	"vitrine_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientCookie identifies the gateway client. Every request gets a stable
// client ID, issued as an HttpOnly cookie on first contact; the session store
// keys all persisted state by it.
func ClientCookie(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := c.Cookie(cfg.ClientCookieName)
		if err != nil || clientID == "" {
			clientID = uuid.NewString()
			c.SetCookie(
				cfg.ClientCookieName,
				clientID,
				int(cfg.SessionTTL.Seconds()),
				"/",
				"",
				cfg.GinMode == "release",
				true,
			)
			logger.Debug("Issued new client cookie", zap.String("clientID", clientID))
		}
		c.Set(common.ClientIDKey, clientID)
		c.Next()
	}
}
