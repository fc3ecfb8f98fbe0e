package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/repositories"
	"github.com/medtranslate/server/internal/auth"
	"github.com/medtranslate/server/internal/websocket"
	"github.com/medtranslate/server/usecase"
)

// Server bundles the handler dependencies.
type Server struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	translator    repositories.Translator
	summarizer    repositories.Summarizer
	audioStore    repositories.AudioStore
	registry      *websocket.Registry
	relay         *usecase.RelayService

	// tokens is nil when share-token auth is disabled.
	tokens *auth.Tokens

	logger *zap.Logger
}

// NewServer creates the API server.
func NewServer(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	translator repositories.Translator,
	summarizer repositories.Summarizer,
	audioStore repositories.AudioStore,
	registry *websocket.Registry,
	relay *usecase.RelayService,
	tokens *auth.Tokens,
	logger *zap.Logger,
) *Server {
	return &Server{
		conversations: conversations,
		messages:      messages,
		translator:    translator,
		summarizer:    summarizer,
		audioStore:    audioStore,
		registry:      registry,
		relay:         relay,
		tokens:        tokens,
		logger:        logger,
	}
}

// Register initializes all API routes.
func (s *Server) Register(e *echo.Echo) {
	e.Validator = NewValidator()

	e.GET("/health", s.health)

	conversations := e.Group("/api/conversations")
	conversations.POST("", s.createConversation)
	conversations.GET("", s.listConversations)
	conversations.GET("/:id", s.getConversation)
	conversations.PATCH("/:id", s.updateConversation)
	conversations.DELETE("/:id", s.deleteConversation)
	conversations.POST("/:id/summarize", s.summarizeConversation)
	conversations.POST("/:id/token", s.issueShareToken)

	messages := e.Group("/api/messages")
	messages.POST("", s.createMessage)
	messages.GET("/:conversation_id", s.listMessages)

	e.GET("/api/search", s.searchMessages)

	audio := e.Group("/api/audio")
	audio.POST("/upload", s.uploadAudio)
	audio.GET("/:id", s.streamAudio)

	e.POST("/api/translate", s.translate)

	e.GET("/ws/:conversation_id", s.serveWebSocket)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "medtranslate-server",
	})
}

// serveWebSocket binds a connection to a conversation room. When share
// tokens are configured, the token must match the requested conversation.
func (s *Server) serveWebSocket(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	if s.tokens != nil {
		token := c.QueryParam("token")
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "Share token is required",
			})
		}

		claims, err := s.tokens.ValidateToken(token)
		if err != nil {
			s.logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired share token",
			})
		}

		if claims.ConversationID != conversationID {
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "wrong_conversation",
				Message: "Token is not valid for this conversation",
			})
		}
	}

	return websocket.ServeConversation(s.registry, s.relay, c, conversationID, s.logger)
}
