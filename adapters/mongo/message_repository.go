package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
)

type MessageRepository struct {
	collection    *mongo.Collection
	conversations *mongo.Collection
}

// NewMessageRepository creates a new MongoDB message repository
func NewMessageRepository(db *mongo.Database) repositories.MessageRepository {
	return &MessageRepository{
		collection:    db.Collection("messages"),
		conversations: db.Collection("conversations"),
	}
}

// Create implements repositories.MessageRepository
func (r *MessageRepository) Create(ctx context.Context, params repositories.CreateMessageParams) (*entities.Message, error) {
	message := &entities.Message{
		ID:             uuid.NewString(),
		ConversationID: params.ConversationID,
		Role:           params.Role,
		OriginalText:   params.OriginalText,
		TranslatedText: params.TranslatedText,
		AudioURL:       params.AudioURL,
		CreatedAt:      time.Now().UTC(),
	}

	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Bump the parent conversation's updated_at. Best-effort: the message
	// itself is already stored.
	r.conversations.UpdateOne(ctx,
		bson.M{"_id": params.ConversationID},
		bson.M{"$set": bson.M{"updated_at": message.CreatedAt}},
	)

	return message, nil
}

// ListByConversation implements repositories.MessageRepository
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]entities.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	opts := options.Find().SetSort(bson.M{"created_at": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []entities.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	return messages, nil
}

// Search implements repositories.MessageRepository. It matches the query as
// a case-insensitive substring of either text field, newest first.
func (r *MessageRepository) Search(ctx context.Context, query string, limit int) ([]entities.Message, error) {
	pattern := regexp.QuoteMeta(query)
	filter := bson.M{"$or": bson.A{
		bson.M{"original_text": bson.M{"$regex": pattern, "$options": "i"}},
		bson.M{"translated_text": bson.M{"$regex": pattern, "$options": "i"}},
	}}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []entities.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	return messages, nil
}
