package content

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postforge/server/internal/module/entitlement"
	"github.com/postforge/server/internal/shared/response"
	"github.com/postforge/server/internal/utils/middleware"
)

// Handler handles HTTP requests for AI chat and content generation.
type Handler struct {
	service *Service
}

// NewHandler creates a new content handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers authenticated content routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
	r.POST("/generate", h.Generate)
}

// Chat runs one assistant exchange.
func (h *Handler) Chat(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.service.Chat(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Generate produces platform-targeted content.
func (h *Handler) Generate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleError maps gate denials onto their own status and code and keeps
// backend outages distinct from internal errors.
func (h *Handler) handleError(c *gin.Context, err error) {
	if ge, ok := entitlement.AsGateError(err); ok {
		response.ErrorWithCode(c, ge.Status, ge.Code, ge.Message)
		return
	}
	switch {
	case errors.Is(err, ErrUnsupportedPlatform):
		response.BadRequest(c, "unsupported platform")
	case errors.Is(err, ErrAIUnavailable):
		response.ErrorWithCode(c, http.StatusServiceUnavailable, "AI_UNAVAILABLE", "the assistant is temporarily unavailable")
	default:
		response.InternalError(c, "")
	}
}
