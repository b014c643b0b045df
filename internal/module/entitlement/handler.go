package entitlement

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postforge/server/internal/shared/response"
	"github.com/postforge/server/internal/utils/middleware"
)

// Handler handles HTTP requests for entitlements.
type Handler struct {
	service *Service
}

// NewHandler creates a new entitlement handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers authenticated entitlement routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/entitlements", h.GetEntitlements)
}

// GetEntitlements returns the caller's current entitlement snapshot.
func (h *Handler) GetEntitlements(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	snap, err := h.service.GetEntitlements(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, snap)
}
