// File: internal/middleware/role.go
package middleware

import (
	"vitrine_backend/internal/common"
	"vitrine_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleAuthMiddleware restores the client's session and checks that the user
// holds one of the allowed roles.
func RoleAuthMiddleware(store shared.Store, logger *zap.Logger, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := common.GetClientIDFromContext(c)
		sess, ok := store.Current(c.Request.Context(), clientID)
		if !ok {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("An authenticated session is required."))
			return
		}

		c.Set(common.SessionKey, sess)
		c.Set(common.UserRoleKey, sess.User.Type)

		isAllowed := false
		for _, role := range allowedRoles {
			if sess.User.Type == role {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			logger.Debug("Role not allowed for route",
				zap.String("userType", sess.User.Type),
				zap.String("path", c.Request.URL.Path))
			common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
			return
		}
		c.Next()
	}
}
