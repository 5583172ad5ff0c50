// File: internal/session/handler.go
package session

import (
	"errors"
	"strconv"

	"vitrine_backend/internal/common"
	"vitrine_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler handles session state HTTP requests.
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates a new session handler.
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger.Named("SessionHandler")}
}

// RegisterRoutes registers session routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminRoleMW gin.HandlerFunc) {
	sessionGroup := rg.Group("/session")
	{
		sessionGroup.GET("", h.getSession)
		sessionGroup.POST("/logout", h.logout)
		sessionGroup.POST("/modals", h.modalAction)
	}
	// Admin-only visibility into active sessions.
	rg.GET("/sessions", adminRoleMW, h.listSessions)
}

// getSession restores and returns the client's session. A malformed or
// partial persisted session comes back as plain logged-out state; restoration
// is silent and never issues a redirect.
func (h *Handler) getSession(c *gin.Context) {
	clientID := common.GetClientIDFromContext(c)

	resp := SessionResponse{
		Modals:          h.store.Modals(c.Request.Context(), clientID),
		RememberedEmail: h.store.RememberedEmail(c.Request.Context(), clientID),
	}
	if sess, ok := h.store.Current(c.Request.Context(), clientID); ok {
		resp.IsLoggedIn = true
		resp.User = sess.User
	}
	common.RespondOK(c, "", resp)
}

// logout clears the session and returns the home route.
func (h *Handler) logout(c *gin.Context) {
	clientID := common.GetClientIDFromContext(c)
	route, err := h.store.Logout(c.Request.Context(), clientID)
	if err != nil {
		// The client still lands on the home route; the cleanup failure is an
		// operator concern, not a user-visible one.
		h.logger.Error("Logout cleanup failed", zap.Error(err), zap.String("clientID", clientID))
	}
	common.RespondOK(c, "Logged out.", gin.H{"route": route})
}

// modalAction applies a modal visibility transition.
func (h *Handler) modalAction(c *gin.Context) {
	var req ModalActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	clientID := common.GetClientIDFromContext(c)
	ctx := c.Request.Context()

	var (
		state shared.ModalState
		err   error
	)
	switch req.Action {
	case "open_login":
		state, err = h.store.OpenLoginModal(ctx, clientID)
	case "open_register":
		state, err = h.store.OpenRegisterModal(ctx, clientID)
	case "switch_to_login":
		state, err = h.store.SwitchToLogin(ctx, clientID)
	case "switch_to_register":
		state, err = h.store.SwitchToRegister(ctx, clientID)
	case "close":
		state, err = h.store.CloseModals(ctx, clientID)
	}
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", state)
}

// listSessions returns a paginated view of active sessions (admin only).
func (h *Handler) listSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	summaries, total, err := h.store.ListActive(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list active sessions", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not list sessions."))
		return
	}
	common.RespondPaginated(c, "", summaries, common.NewPagination(total, page, pageSize))
}
