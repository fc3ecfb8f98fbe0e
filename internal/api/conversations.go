package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (s *Server) createConversation(c echo.Context) error {
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.DoctorLanguage == "" {
		req.DoctorLanguage = entities.LanguageEnglish
	}
	if req.PatientLanguage == "" {
		req.PatientLanguage = entities.LanguageSpanish
	}

	conversation := &entities.Conversation{
		ID:              uuid.NewString(),
		DoctorLanguage:  req.DoctorLanguage,
		PatientLanguage: req.PatientLanguage,
		Status:          entities.StatusActive,
	}

	if err := s.conversations.Create(c.Request().Context(), conversation); err != nil {
		s.logger.Error("Failed to create conversation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Failed to create conversation",
		})
	}

	return c.JSON(http.StatusOK, ConversationResponse{
		Conversation: *conversation,
		Messages:     []entities.Message{},
	})
}

func (s *Server) listConversations(c echo.Context) error {
	limit := intQueryParam(c, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := intQueryParam(c, "offset", 0)

	conversations, err := s.conversations.List(c.Request().Context(), limit, offset)
	if err != nil {
		s.logger.Error("Failed to list conversations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Failed to list conversations",
		})
	}

	return c.JSON(http.StatusOK, conversations)
}

func (s *Server) getConversation(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	conversation, err := s.conversations.Get(ctx, id)
	if err != nil {
		return s.conversationError(c, err)
	}

	messages, err := s.messages.ListByConversation(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load conversation messages",
			zap.String("conversationID", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Failed to load messages",
		})
	}

	return c.JSON(http.StatusOK, ConversationResponse{
		Conversation: *conversation,
		Messages:     messages,
	})
}

func (s *Server) updateConversation(c echo.Context) error {
	var req UpdateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	conversation, err := s.conversations.Update(c.Request().Context(), c.Param("id"), repositories.UpdateConversationParams{
		Status:  req.Status,
		Summary: req.Summary,
	})
	if err != nil {
		return s.conversationError(c, err)
	}

	return c.JSON(http.StatusOK, conversation)
}

func (s *Server) deleteConversation(c echo.Context) error {
	if err := s.conversations.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.conversationError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Conversation deleted",
	})
}

// summarizeConversation generates and persists a structured summary. This
// is the one place where provider failure is user-visible.
func (s *Server) summarizeConversation(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	if _, err := s.conversations.Get(ctx, id); err != nil {
		return s.conversationError(c, err)
	}

	messages, err := s.messages.ListByConversation(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load messages for summary",
			zap.String("conversationID", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Failed to load messages",
		})
	}

	summary, err := s.summarizer.Summarize(ctx, messages)
	if err != nil && !errors.Is(err, repositories.ErrSummaryMalformed) {
		s.logger.Error("Summary generation failed",
			zap.String("conversationID", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "summary_failure",
			Message: "Failed to generate summary",
		})
	}

	// A malformed provider response yields a displayable placeholder that
	// must not overwrite a previously stored summary.
	if err == nil {
		if _, err := s.conversations.Update(ctx, id, repositories.UpdateConversationParams{Summary: summary}); err != nil {
			s.logger.Error("Failed to persist summary",
				zap.String("conversationID", id),
				zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, summary)
}

func (s *Server) issueShareToken(c echo.Context) error {
	if s.tokens == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "tokens_disabled",
			Message: "Share tokens are not configured",
		})
	}

	var req ShareTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id := c.Param("id")
	if _, err := s.conversations.Get(c.Request().Context(), id); err != nil {
		return s.conversationError(c, err)
	}

	token, err := s.tokens.GenerateConversationToken(id, req.Role)
	if err != nil {
		s.logger.Error("Failed to generate share token",
			zap.String("conversationID", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate share token",
		})
	}

	return c.JSON(http.StatusOK, ShareTokenResponse{Token: token})
}

func (s *Server) conversationError(c echo.Context, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found",
		})
	}

	s.logger.Error("Conversation storage failure", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "storage_failure",
		Message: "Conversation storage failure",
	})
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
