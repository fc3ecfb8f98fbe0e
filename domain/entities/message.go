package entities

import "time"

// Role identifies which participant authored a message.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether the role is one of the two known participants.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// Message is one persisted entry of a conversation, carrying both the
// original text and its translation.
type Message struct {
	ID             string    `json:"id" bson:"_id"`
	ConversationID string    `json:"conversation_id" bson:"conversation_id"`
	Role           Role      `json:"role" bson:"role"`
	OriginalText   string    `json:"original_text" bson:"original_text"`
	TranslatedText string    `json:"translated_text" bson:"translated_text"`
	AudioURL       string    `json:"audio_url,omitempty" bson:"audio_url,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
