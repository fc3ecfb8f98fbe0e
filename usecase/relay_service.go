package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
)

// Placeholders guaranteeing persisted and broadcast messages are never
// empty strings.
const (
	transcriptionFailedText = "[Transcription failed]"
	emptyMessageText        = "[Empty message]"
)

// Publisher fans a marshaled frame out to every connection of a
// conversation room.
type Publisher interface {
	Publish(conversationID string, payload []byte)
}

// SendMessageEvent is an inbound message from one participant.
type SendMessageEvent struct {
	Text     string
	Role     entities.Role
	IsAudio  bool
	AudioURL string
}

type frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type joinedData struct {
	ConversationID string        `json:"conversation_id"`
	Role           entities.Role `json:"role"`
}

type typingData struct {
	Role     entities.Role `json:"role"`
	IsTyping bool          `json:"is_typing"`
}

// RelayService orchestrates the relay pipeline for inbound events:
// transcription (audio only), translation, persistence, broadcast. Each
// stage degrades instead of aborting, so a live conversation keeps flowing
// through provider or storage trouble.
type RelayService struct {
	transcriber repositories.Transcriber
	translator  repositories.Translator
	messages    repositories.MessageRepository
	publisher   Publisher
	logger      *zap.Logger
}

// NewRelayService creates a new relay service.
func NewRelayService(
	transcriber repositories.Transcriber,
	translator repositories.Translator,
	messages repositories.MessageRepository,
	publisher Publisher,
	logger *zap.Logger,
) *RelayService {
	return &RelayService{
		transcriber: transcriber,
		translator:  translator,
		messages:    messages,
		publisher:   publisher,
		logger:      logger,
	}
}

// HandleSendMessage runs one SendMessage event through the pipeline and
// returns the broadcast record.
func (s *RelayService) HandleSendMessage(ctx context.Context, conversationID string, event SendMessageEvent) *entities.Message {
	text := event.Text

	if event.AudioURL != "" {
		if transcribed, ok := s.transcriber.Transcribe(ctx, event.AudioURL); ok {
			text = transcribed
		} else if text == "" {
			// Whitespace-only accompanying text is kept here and falls
			// through to the empty-message placeholder below.
			text = transcriptionFailedText
		}
	}

	if strings.TrimSpace(text) == "" {
		text = emptyMessageText
	}

	// Role-derived language pair. The conversation's configured languages
	// are intentionally not consulted here.
	source, target := languagePair(event.Role)
	translation := s.translator.Translate(ctx, text, source, target)
	if translation.Degraded {
		s.logger.Warn("Relaying message with passthrough translation",
			zap.String("conversationID", conversationID))
	}

	record, err := s.messages.Create(ctx, repositories.CreateMessageParams{
		ConversationID: conversationID,
		Role:           event.Role,
		OriginalText:   translation.OriginalText,
		TranslatedText: translation.TranslatedText,
		AudioURL:       event.AudioURL,
	})
	if err != nil {
		// Availability over durability: synthesize a record so the other
		// participant still receives the message.
		s.logger.Error("Failed to persist message, broadcasting in-memory record",
			zap.String("conversationID", conversationID),
			zap.Error(err))
		record = &entities.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Role:           event.Role,
			OriginalText:   translation.OriginalText,
			TranslatedText: translation.TranslatedText,
			AudioURL:       event.AudioURL,
			CreatedAt:      time.Now().UTC(),
		}
	}

	s.publish(conversationID, frame{Type: "new_message", Data: record})
	return record
}

// HandleTyping broadcasts a typing indicator. Ephemeral: no persistence, no
// ordering guarantee relative to other event types.
func (s *RelayService) HandleTyping(conversationID string, role entities.Role, isTyping bool) {
	s.publish(conversationID, frame{Type: "typing", Data: typingData{
		Role:     role,
		IsTyping: isTyping,
	}})
}

// JoinAck builds the personal acknowledgment frame for a join event.
func (s *RelayService) JoinAck(conversationID string, role entities.Role) []byte {
	payload, _ := json.Marshal(frame{Type: "joined", Data: joinedData{
		ConversationID: conversationID,
		Role:           role,
	}})
	return payload
}

func (s *RelayService) publish(conversationID string, f frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		s.logger.Error("Failed to marshal outbound frame",
			zap.String("type", f.Type),
			zap.Error(err))
		return
	}
	s.publisher.Publish(conversationID, payload)
}

func languagePair(role entities.Role) (source, target entities.Language) {
	if role == entities.RolePatient {
		return entities.LanguageSpanish, entities.LanguageEnglish
	}
	return entities.LanguageEnglish, entities.LanguageSpanish
}
