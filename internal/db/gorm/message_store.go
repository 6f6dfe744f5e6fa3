package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// MessageStore provides message-related database operations. Messages are
// append-only: created, read, and bulk-deleted with their session, never
// edited.
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore creates a new message store.
func NewMessageStore(store *Store) *MessageStore {
	return &MessageStore{db: store.DB}
}

// Append adds a message to the session's conversation log.
func (s *MessageStore) Append(ctx context.Context, sessionID string, role models.MessageRole, content string) (*models.Message, error) {
	row := &Message{
		SessionID: sessionID,
		Role:      string(role),
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	m := row.toModel()
	return &m, nil
}

// SetAudioPath records the synthesized-audio artifact for a message.
func (s *MessageStore) SetAudioPath(ctx context.Context, id int64, audioPath string) error {
	return s.db.WithContext(ctx).Model(&Message{}).Where("id = ?", id).
		Update("audio_path", audioPath).Error
}

// ListBySession returns all messages for a session in creation order.
func (s *MessageStore) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	var rows []Message
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at_epoch ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// CountBySession returns the number of messages in a session.
func (s *MessageStore) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("session_id = ?", sessionID).Count(&count).Error
	return int(count), err
}
