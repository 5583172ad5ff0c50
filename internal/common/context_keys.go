// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// ClientIDKey is the context key for the gateway client identifier
	ClientIDKey = "clientID"
	// SessionKey is the context key for the restored session, when one exists
	SessionKey = "clientSession"
	// UserRoleKey is the context key for the authenticated user's role
	UserRoleKey = "userRole"
)
