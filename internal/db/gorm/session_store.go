package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// SessionStore provides session-related database operations.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{db: store.DB}
}

// Create inserts a new active session.
func (s *SessionStore) Create(ctx context.Context, p models.SessionParams) (*models.Session, error) {
	row := &Session{
		ID:             p.ID,
		ExpertName:     p.ExpertName,
		ExpertCallsign: nullString(p.ExpertCallsign),
		Topics:         models.JSONStringArray(p.Topics),
		VoicePreset:    p.VoicePreset,
		SpeechRate:     p.SpeechRate,
		Status:         string(models.SessionStatusActive),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return row.toModel(), nil
}

// GetByID fetches a session, returning ErrSessionNotFound for unknown ids.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var row Session
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// List returns sessions newest first, optionally filtered by status.
func (s *SessionStore) List(ctx context.Context, status string) ([]*models.Session, error) {
	q := s.db.WithContext(ctx).Order("created_at_epoch DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []Session
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Session, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// UpdateKnowledge rewrites the session's merged knowledge record wholesale.
func (s *SessionStore) UpdateKnowledge(ctx context.Context, id string, k *models.KnowledgeRecord) error {
	res := s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(map[string]interface{}{
		"extracted_knowledge": k,
		"updated_at":          time.Now().Format(time.RFC3339),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AddSynthesisCost atomically increments the running character and cost
// counters and returns the updated session.
func (s *SessionStore) AddSynthesisCost(ctx context.Context, id string, chars int, cost float64) (*models.Session, error) {
	res := s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_chars_synthesized": gorm.Expr("total_chars_synthesized + ?", chars),
		"estimated_cost":          gorm.Expr("estimated_cost + ?", cost),
		"updated_at":              time.Now().Format(time.RFC3339),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrSessionNotFound
	}
	return s.GetByID(ctx, id)
}

// Complete marks a session completed with its final counts.
func (s *SessionStore) Complete(ctx context.Context, id string, messageCount int, durationSeconds int64) error {
	now := time.Now().Format(time.RFC3339)
	res := s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":                 string(models.SessionStatusCompleted),
		"message_count":          messageCount,
		"total_duration_seconds": durationSeconds,
		"ended_at":               now,
		"updated_at":             now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session along with its messages and extractions.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&Extraction{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}
