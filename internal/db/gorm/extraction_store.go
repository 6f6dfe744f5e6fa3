package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// ExtractionStore persists the raw output of each extraction pass as an
// append-only audit trail, separate from the merged knowledge on the
// session row.
type ExtractionStore struct {
	db *gorm.DB
}

// NewExtractionStore creates a new extraction store.
func NewExtractionStore(store *Store) *ExtractionStore {
	return &ExtractionStore{db: store.DB}
}

// Append records one extraction pass with the message range it covered.
func (s *ExtractionStore) Append(ctx context.Context, sessionID string, data *models.KnowledgeRecord, rangeStart, rangeEnd int) (*models.Extraction, error) {
	row := &Extraction{
		SessionID:         sessionID,
		ExtractionData:    data,
		MessageRangeStart: rangeStart,
		MessageRangeEnd:   rangeEnd,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("append extraction: %w", err)
	}
	e := row.toModel()
	return &e, nil
}

// ListBySession returns all extraction passes for a session in order.
func (s *ExtractionStore) ListBySession(ctx context.Context, sessionID string) ([]models.Extraction, error) {
	var rows []Extraction
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at_epoch ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Extraction, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}
