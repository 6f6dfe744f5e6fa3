package models

import (
	"database/sql"

	"github.com/goccy/go-json"
)

// MessageRole identifies the speaker of a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry in a session's append-only conversation log.
type Message struct {
	ID             int64          `db:"id" json:"id"`
	SessionID      string         `db:"session_id" json:"session_id"`
	Role           MessageRole    `db:"role" json:"role"`
	Content        string         `db:"content" json:"content"`
	AudioPath      sql.NullString `db:"audio_path" json:"audio_path,omitempty"`
	CreatedAt      string         `db:"created_at" json:"created_at"`
	CreatedAtEpoch int64          `db:"created_at_epoch" json:"created_at_epoch"`
}

// MessageJSON is the API representation of Message with nullable fields
// flattened to plain strings.
type MessageJSON struct {
	ID             int64       `json:"id"`
	SessionID      string      `json:"session_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	AudioPath      string      `json:"audio_path,omitempty"`
	CreatedAt      string      `json:"created_at"`
	CreatedAtEpoch int64       `json:"created_at_epoch"`
}

// MarshalJSON implements json.Marshaler for Message.
// Converts sql.NullString fields to plain strings.
func (m *Message) MarshalJSON() ([]byte, error) {
	j := MessageJSON{
		ID:             m.ID,
		SessionID:      m.SessionID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		CreatedAtEpoch: m.CreatedAtEpoch,
	}
	if m.AudioPath.Valid {
		j.AudioPath = m.AudioPath.String
	}
	return json.Marshal(j)
}

// ChatMessage is the role/content pair sent to the conversational model.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Chat strips a stored message down to the pair the model API accepts.
func (m *Message) Chat() ChatMessage {
	return ChatMessage{Role: m.Role, Content: m.Content}
}

// ChatHistory converts stored messages into model-ready pairs.
func ChatHistory(msgs []Message) []ChatMessage {
	out := make([]ChatMessage, len(msgs))
	for i := range msgs {
		out[i] = msgs[i].Chat()
	}
	return out
}
