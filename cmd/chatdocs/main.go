package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/api"
	"github.com/chatdocs/chatdocs/internal/config"
	"github.com/chatdocs/chatdocs/internal/feishu"
	"github.com/chatdocs/chatdocs/internal/index"
	"github.com/chatdocs/chatdocs/internal/qa"
	"github.com/chatdocs/chatdocs/internal/repository"
	"github.com/chatdocs/chatdocs/internal/service"
	"github.com/chatdocs/chatdocs/internal/storage"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize transcript database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	sessionRepo := repository.NewSessionRepository(db)

	// Document store and QA engine
	store := storage.NewStore(cfg.Storage.UploadRoot)
	engine := qa.NewOpenAIEngine(cfg.LLM.BaseURL, cfg.LLM.APIKey, qa.EngineConfig{
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		ChatModel:      cfg.LLM.ChatModel,
		TopK:           cfg.LLM.TopK,
		ChunkSize:      cfg.LLM.ChunkSize,
		ChunkOverlap:   cfg.LLM.ChunkOverlap,
		ScoreThreshold: cfg.LLM.ScoreThreshold,
	}, logger)
	manager := index.NewManager(cfg.Storage.VectorRoot, engine, store, logger)

	// Initialize services
	knowledgeService := service.NewKnowledgeService(store, manager, logger)
	chatService := service.NewChatService(engine, manager, sessionRepo, logger)

	feishuClient := feishu.NewClient(cfg.Feishu.BaseURL, cfg.Feishu.AppID, cfg.Feishu.AppSecret)
	webhookService := service.NewWebhookService(chatService, feishuClient, cfg.Feishu, logger)

	// Setup router
	router := api.SetupRouter(knowledgeService, chatService, webhookService, logger, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting chatdocs server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight webhook deliveries finish
	webhookService.Wait()

	logger.Info("Server exited")
}
