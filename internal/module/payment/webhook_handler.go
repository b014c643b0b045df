package payment

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives gateway webhook deliveries.
type WebhookHandler struct {
	service *Service
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service *Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// RegisterRoutes registers the webhook route. Providers authenticate via
// payload signatures, not bearer tokens, so the route is public.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/:provider", h.Receive)
}

// Receive handles one webhook delivery. It always answers 200 so gateways
// do not retry deliveries that will never parse.
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.GetHeader(name)
	}

	result := h.service.HandleWebhook(c.Request.Context(), c.Param("provider"), payload, headers)
	c.JSON(http.StatusOK, gin.H{"received": true, "processed": result.Processed})
}
