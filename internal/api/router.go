package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/api/middleware"
	"github.com/chatdocs/chatdocs/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	knowledgeService *service.KnowledgeService,
	chatService *service.ChatService,
	webhookService *service.WebhookService,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API documentation
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/docs")
	})
	r.GET("/docs", Docs)

	chatDocs := r.Group("/chat-docs")

	// Chat endpoints (public)
	chatHandler := NewChatHandler(chatService, logger)
	chatHandler.RegisterRoutes(chatDocs)

	// Knowledge base management (requires API key when configured)
	knowledgeHandler := NewKnowledgeHandler(knowledgeService)
	knowledgeGroup := chatDocs.Group("")
	knowledgeGroup.Use(middleware.Auth(cfg.APIKey))
	knowledgeHandler.RegisterRoutes(knowledgeGroup)

	// Feishu webhook
	webhookHandler := NewWebhookHandler(webhookService)
	webhookGroup := r.Group("/feishu")
	webhookHandler.RegisterRoutes(webhookGroup)

	return r
}
