// File: internal/nav/handler.go
package nav

import (
	"vitrine_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles navigation view-model HTTP requests.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new navigation handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("NavHandler")}
}

// RegisterRoutes registers navigation routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/navigation", h.getNavigation)
}

func (h *Handler) getNavigation(c *gin.Context) {
	clientID := common.GetClientIDFromContext(c)
	vm := h.service.ViewModel(c.Request.Context(), clientID)
	common.RespondOK(c, "", vm)
}
