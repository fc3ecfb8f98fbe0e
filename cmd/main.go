package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/medtranslate/server/adapters/audiostore"
	"github.com/medtranslate/server/adapters/mongo"
	"github.com/medtranslate/server/adapters/openrouter"
	"github.com/medtranslate/server/adapters/summary"
	"github.com/medtranslate/server/adapters/transcription"
	"github.com/medtranslate/server/adapters/translation"
	"github.com/medtranslate/server/internal/api"
	"github.com/medtranslate/server/internal/auth"
	"github.com/medtranslate/server/internal/config"
	"github.com/medtranslate/server/internal/websocket"
	"github.com/medtranslate/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Persistence
	mongoClient, err := mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	conversationRepo := mongo.NewConversationRepository(mongoClient.Database)
	messageRepo := mongo.NewMessageRepository(mongoClient.Database)

	// Audio storage
	audioStore, err := audiostore.NewLocal(cfg.AudioStoragePath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize audio storage", zap.Error(err))
	}

	// Provider adapters
	completionClient, err := openrouter.NewClient(openrouter.Config{
		APIKey:     cfg.OpenRouterAPIKey,
		APIBaseURL: cfg.OpenRouterBaseURL,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OpenRouter client", zap.Error(err))
	}
	translator := translation.NewTranslator(completionClient, logger)
	summarizer := summary.NewSummarizer(completionClient, logger)
	transcriber := transcription.NewTranscriber(transcription.Config{
		APIKey:     cfg.OpenRouterAPIKey,
		APIBaseURL: cfg.OpenRouterBaseURL,
	}, audioStore, logger)

	// Relay pipeline and connection registry
	registry := websocket.NewRegistry(logger)
	relay := usecase.NewRelayService(transcriber, translator, messageRepo, registry, logger)

	var tokens *auth.Tokens
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokens(cfg.JWTSecret)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	server := api.NewServer(
		conversationRepo,
		messageRepo,
		translator,
		summarizer,
		audioStore,
		registry,
		relay,
		tokens,
		logger,
	)
	server.Register(e)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := mongoClient.Close(ctx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Server exited")
}
