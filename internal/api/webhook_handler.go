package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatdocs/chatdocs/internal/domain"
	"github.com/chatdocs/chatdocs/internal/feishu"
	"github.com/chatdocs/chatdocs/internal/service"
)

// WebhookHandler handles inbound Feishu events
type WebhookHandler struct {
	webhookService *service.WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/event", h.Event)
}

// Event acknowledges an inbound event immediately; message events are
// answered in the background and delivered out-of-band.
func (h *WebhookHandler) Event(c *gin.Context) {
	var event feishu.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.webhookService.Handle(&event)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid verification token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Challenge != "" {
		c.JSON(http.StatusOK, gin.H{"challenge": result.Challenge})
		return
	}
	c.JSON(http.StatusOK, result.Echo)
}
