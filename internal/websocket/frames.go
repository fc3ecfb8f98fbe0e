package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/medtranslate/server/domain/entities"
)

// Client→server frame types.
const (
	frameTypeJoin   = "join_conversation"
	frameTypeSend   = "send_message"
	frameTypeTyping = "typing"
)

// clientFrame is the superset of all inbound frame shapes, discriminated
// by Type.
type clientFrame struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversation_id"`
	Text           string        `json:"text"`
	Role           entities.Role `json:"role"`
	IsAudio        bool          `json:"is_audio"`
	AudioURL       *string       `json:"audio_url"`
	IsTyping       bool          `json:"is_typing"`
}

// inboundEvent is the decoded tagged variant of a client frame. Transient,
// never persisted.
type inboundEvent interface {
	isInboundEvent()
}

type joinEvent struct {
	conversationID string
	role           entities.Role
}

type sendMessageEvent struct {
	text     string
	role     entities.Role
	isAudio  bool
	audioURL string
}

type typingEvent struct {
	role     entities.Role
	isTyping bool
}

func (joinEvent) isInboundEvent()        {}
func (sendMessageEvent) isInboundEvent() {}
func (typingEvent) isInboundEvent()      {}

// decodeInboundEvent parses a raw text frame. Invalid JSON and
// unrecognized types are reported as errors for the caller to log and drop.
func decodeInboundEvent(raw []byte) (inboundEvent, error) {
	var f clientFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	role := f.Role
	if !role.Valid() {
		role = entities.RoleDoctor
	}

	switch f.Type {
	case frameTypeJoin:
		return joinEvent{conversationID: f.ConversationID, role: role}, nil

	case frameTypeSend:
		audioURL := ""
		if f.AudioURL != nil {
			audioURL = *f.AudioURL
		}
		return sendMessageEvent{
			text:     f.Text,
			role:     role,
			isAudio:  f.IsAudio,
			audioURL: audioURL,
		}, nil

	case frameTypeTyping:
		return typingEvent{role: role, isTyping: f.IsTyping}, nil

	default:
		return nil, fmt.Errorf("unrecognized frame type %q", f.Type)
	}
}
