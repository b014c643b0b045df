package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postforge/server/internal/shared/response"
	"github.com/postforge/server/internal/utils/middleware"
)

// Handler handles HTTP requests for billing.
type Handler struct {
	service *Service
}

// NewHandler creates a new billing handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers routes that do not require authentication.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/plans", h.ListPlans)
}

// RegisterRoutes registers authenticated billing routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/subscription", h.GetSubscription)
}

// ListPlans returns all purchasable plans.
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		response.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// GetSubscription returns the caller's current subscription, if any.
func (h *Handler) GetSubscription(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	sub, err := h.service.GetCurrent(c.Request.Context(), userID)
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrNoSubscription, Status: http.StatusNotFound},
		})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, SubscriptionResponse{
		Subscription: sub,
		IsActive:     sub.IsActiveAt(now),
		Now:          now,
	})
}
