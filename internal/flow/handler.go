// File: internal/flow/handler.go
package flow

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"vitrine_backend/internal/common"
	"vitrine_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler handles login-flow and vendor-onboarding HTTP requests.
type Handler struct {
	coordinator *Coordinator
	logger      *zap.Logger
}

// NewHandler creates a new flow handler.
func NewHandler(coordinator *Coordinator, logger *zap.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: logger.Named("FlowHandler")}
}

// RegisterRoutes registers login-flow routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session/login", h.login)

	onboarding := rg.Group("/onboarding")
	{
		onboarding.GET("/state", h.promptState)
		onboarding.POST("/transition", h.transition)
		onboarding.POST("/boutique", h.createBoutique)
		onboarding.POST("/skip", h.skip)
		onboarding.POST("/dismiss", h.dismiss)
	}
}

// login runs one login attempt. The response is either a committed session or
// a pending boutique-creation prompt for new vendors.
func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
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
	result, err := h.coordinator.BeginLogin(c.Request.Context(), clientID, req.Email, req.Password, req.RememberMe)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", result)
}

// promptState lets the front-end resynchronize the onboarding prompt after a
// reload.
func (h *Handler) promptState(c *gin.Context) {
	clientID := common.GetClientIDFromContext(c)
	state, creationError := h.coordinator.PromptStateFor(clientID)
	common.RespondOK(c, "", gin.H{
		"prompt_state":   state,
		"creation_error": creationError,
	})
}

// transition advances the prompt choreography after a modal transition ends.
func (h *Handler) transition(c *gin.Context) {
	clientID := common.GetClientIDFromContext(c)
	state, err := h.coordinator.NotifyTransitionEnd(c.Request.Context(), clientID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", gin.H{"prompt_state": state})
}

// createBoutique submits the shop-creation form and finalizes the vendor login
// on success.
func (h *Handler) createBoutique(c *gin.Context) {
	var req BoutiqueCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	dto := shared.BoutiqueCreate{
		Nom:                   req.Nom,
		TypeBoutiqueUUID:      req.TypeBoutiqueUUID,
		Description:           req.Description,
		PolitiqueRetour:       req.PolitiqueRetour,
		ConditionsUtilisation: req.ConditionsUtilisation,
		VendeurUUID:           req.VendeurUUID,
	}

	var err error
	if dto.Logo, err = readUpload(c, "logo"); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read logo upload."))
		return
	}
	if dto.Banniere, err = readUpload(c, "banniere"); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read banner upload."))
		return
	}

	clientID := common.GetClientIDFromContext(c)
	result, err := h.coordinator.SubmitBoutique(c.Request.Context(), clientID, dto)
	if err != nil {
		// The result still carries the prompt state and the inline error text
		// so the form can surface it without closing.
		if apiErr, ok := common.IsAPIError(err); ok && result.CreationError != "" {
			c.AbortWithStatusJSON(apiErr.StatusCode, gin.H{
				"code":    apiErr.Code,
				"message": apiErr.Message,
				"data":    result,
			})
			return
		}
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Boutique created.", result)
}

// skip finalizes the deferred login without boutique data ("later" action).
func (h *Handler) skip(c *gin.Context) {
	h.terminal(c, h.coordinator.SkipPrompt)
}

// dismiss finalizes the deferred login without boutique data (close action).
func (h *Handler) dismiss(c *gin.Context) {
	h.terminal(c, h.coordinator.DismissPrompt)
}

func (h *Handler) terminal(c *gin.Context, action func(ctx context.Context, clientID string) (Result, error)) {
	clientID := common.GetClientIDFromContext(c)
	result, err := action(c.Request.Context(), clientID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", result)
}

func readUpload(c *gin.Context, field string) (*shared.Upload, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		// Absent file parts are fine; both uploads are optional.
		return nil, nil
	}
	return uploadFromHeader(fileHeader)
}

func uploadFromHeader(fh *multipart.FileHeader) (*shared.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &shared.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
