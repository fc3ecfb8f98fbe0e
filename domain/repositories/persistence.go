package repositories

import (
	"context"
	"errors"

	"github.com/medtranslate/server/domain/entities"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CreateMessageParams carries the fields needed to persist a new message.
type CreateMessageParams struct {
	ConversationID string
	Role           entities.Role
	OriginalText   string
	TranslatedText string
	AudioURL       string
}

// MessageRepository stores and queries conversation messages.
type MessageRepository interface {
	Create(ctx context.Context, params CreateMessageParams) (*entities.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]entities.Message, error)
	Search(ctx context.Context, query string, limit int) ([]entities.Message, error)
}

// UpdateConversationParams carries the mutable conversation fields. Nil
// fields are left untouched.
type UpdateConversationParams struct {
	Status  *entities.ConversationStatus
	Summary *entities.MedicalSummary
}

// ConversationRepository stores conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *entities.Conversation) error
	Get(ctx context.Context, id string) (*entities.Conversation, error)
	List(ctx context.Context, limit, offset int) ([]entities.Conversation, error)
	Update(ctx context.Context, id string, params UpdateConversationParams) (*entities.Conversation, error)
	Delete(ctx context.Context, id string) error
}
