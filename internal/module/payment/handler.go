package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postforge/server/internal/module/billing"
	"github.com/postforge/server/internal/module/payment/provider"
	"github.com/postforge/server/internal/shared/response"
	"github.com/postforge/server/internal/utils/middleware"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers authenticated payment routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/checkout", h.CreateCheckout)
		payments.GET("/checkout/:session_id", h.GetCheckoutStatus)
	}
}

// RegisterCallbackRoutes registers the browser-facing return route. It is
// unauthenticated because gateways redirect without our bearer token.
func (h *Handler) RegisterCallbackRoutes(r *gin.RouterGroup) {
	r.GET("/payments/callback", h.Callback)
}

// CreateCheckout opens a checkout session for the requested plan.
func (h *Handler) CreateCheckout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	session, err := h.service.CreateCheckoutSession(c.Request.Context(), userID, middleware.GetEmail(c), req.PlanID)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			response.ErrorWithCode(c, http.StatusServiceUnavailable, "PROVIDER_NOT_CONFIGURED", "payments are not available")
			return
		}
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: billing.ErrPlanNotFound, Status: http.StatusNotFound},
			{Err: ErrUnknownProvider, Status: http.StatusServiceUnavailable},
		})
		return
	}

	c.JSON(http.StatusCreated, CheckoutResponse{
		SessionID:   session.SessionID,
		Provider:    session.Provider,
		CheckoutURL: session.CheckoutURL,
		Status:      session.Status,
	})
}

// GetCheckoutStatus returns the state of one of the caller's sessions.
func (h *Handler) GetCheckoutStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "")
		return
	}

	session, err := h.service.GetCheckoutStatus(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrSessionNotFound, Status: http.StatusNotFound},
		})
		return
	}
	if session.UserID != userID {
		response.NotFound(c, "")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		SessionID: session.SessionID,
		Status:    session.Status,
	})
}

// Callback lands the user back from the gateway. The route is public and
// the outcome is whatever the client sent, so settlement is delegated to
// the service, which only trusts it for providers without webhooks.
func (h *Handler) Callback(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.BadRequest(c, "missing session_id")
		return
	}

	var success bool
	switch c.Query("outcome") {
	case "success":
		success = true
	case "cancel":
		success = false
	default:
		response.BadRequest(c, "invalid outcome")
		return
	}

	session, err := h.service.HandleCallback(c.Request.Context(), sessionID, success)
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: ErrSessionNotFound, Status: http.StatusNotFound},
		})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{
		SessionID: session.SessionID,
		Status:    session.Status,
	})
}
