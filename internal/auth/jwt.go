package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medtranslate/server/domain/entities"
)

const tokenTTL = 24 * time.Hour

// ConversationClaims represents the claims of a conversation share token.
// A token grants access to exactly one conversation room.
type ConversationClaims struct {
	ConversationID string        `json:"conversation_id"`
	Role           entities.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and validates conversation share tokens with an injected
// secret.
type Tokens struct {
	secret []byte
}

// NewTokens creates a token issuer/validator for the given secret.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

// GenerateConversationToken generates a token scoped to one conversation
// and role.
func (t *Tokens) GenerateConversationToken(conversationID string, role entities.Role) (string, error) {
	claims := &ConversationClaims{
		ConversationID: conversationID,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken validates a token and returns its claims.
func (t *Tokens) ValidateToken(tokenString string) (*ConversationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ConversationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ConversationClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
