package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/repositories"
)

func (s *Server) createMessage(c echo.Context) error {
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	if _, err := s.conversations.Get(ctx, req.ConversationID); err != nil {
		return s.conversationError(c, err)
	}

	message, err := s.messages.Create(ctx, repositories.CreateMessageParams{
		ConversationID: req.ConversationID,
		Role:           req.Role,
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
		AudioURL:       req.AudioURL,
	})
	if err != nil {
		s.logger.Error("Failed to create message",
			zap.String("conversationID", req.ConversationID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Failed to create message",
		})
	}

	return c.JSON(http.StatusOK, message)
}

func (s *Server) listMessages(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	messages, err := s.messages.ListByConversation(c.Request().Context(), conversationID)
	if err != nil {
		s.logger.Error("Failed to list messages",
			zap.String("conversationID", conversationID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Failed to list messages",
		})
	}

	return c.JSON(http.StatusOK, messages)
}
