package api

import (
	"github.com/medtranslate/server/domain/entities"
)

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateConversationRequest creates a conversation with its language pair.
type CreateConversationRequest struct {
	DoctorLanguage  entities.Language `json:"doctor_language" validate:"omitempty,oneof=en es zh vi ko ar fr"`
	PatientLanguage entities.Language `json:"patient_language" validate:"omitempty,oneof=en es zh vi ko ar fr"`
}

// UpdateConversationRequest mutates status and/or summary.
type UpdateConversationRequest struct {
	Status  *entities.ConversationStatus `json:"status" validate:"omitempty,oneof=active completed archived"`
	Summary *entities.MedicalSummary     `json:"summary"`
}

// ConversationResponse is a conversation plus its ordered messages.
type ConversationResponse struct {
	entities.Conversation
	Messages []entities.Message `json:"messages"`
}

// CreateMessageRequest persists a message through the REST surface.
type CreateMessageRequest struct {
	ConversationID string        `json:"conversation_id" validate:"required"`
	Role           entities.Role `json:"role" validate:"required,oneof=doctor patient"`
	OriginalText   string        `json:"original_text" validate:"required"`
	TranslatedText string        `json:"translated_text" validate:"required"`
	AudioURL       string        `json:"audio_url"`
}

// TranslateRequest is the stateless translation call.
type TranslateRequest struct {
	Text           string            `json:"text"`
	SourceLanguage entities.Language `json:"source_language" validate:"required"`
	TargetLanguage entities.Language `json:"target_language" validate:"required"`
}

// ShareTokenRequest asks for a conversation share token.
type ShareTokenRequest struct {
	Role entities.Role `json:"role" validate:"required,oneof=doctor patient"`
}

// ShareTokenResponse carries the issued token.
type ShareTokenResponse struct {
	Token string `json:"token"`
}

// UploadAudioResponse identifies a stored audio file.
type UploadAudioResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// SearchResult is one search hit with highlighted context.
type SearchResult struct {
	MessageID       string `json:"message_id"`
	ConversationID  string `json:"conversation_id"`
	Snippet         string `json:"snippet"`
	HighlightedText string `json:"highlighted_text"`
	Role            string `json:"role"`
	CreatedAt       string `json:"created_at"`
}
