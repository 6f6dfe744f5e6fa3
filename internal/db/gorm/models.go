// Package gorm provides GORM-based database operations for the interview
// service.
package gorm

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// GORM models. The KnowledgeRecord and JSONStringArray types from
// pkg/models implement sql.Scanner and driver.Valuer, so they persist as
// JSON text columns.

// Session represents an interview session row.
type Session struct {
	ID                    string                  `gorm:"primaryKey"`
	ExpertName            string                  `gorm:"not null"`
	ExpertCallsign        sql.NullString
	Topics                models.JSONStringArray  `gorm:"type:text"`
	VoicePreset           string                  `gorm:"not null;default:'premium_female'"`
	SpeechRate            float64                 `gorm:"type:real;default:0.95"`
	Status                string                  `gorm:"type:text;check:status IN ('active', 'completed', 'abandoned');default:'active';index"`
	ExtractedKnowledge    *models.KnowledgeRecord `gorm:"column:extracted_knowledge;type:text"`
	MessageCount          int                     `gorm:"default:0"`
	TotalCharsSynthesized int64                   `gorm:"default:0"`
	EstimatedCost         float64                 `gorm:"type:real;default:0"`
	TotalDurationSeconds  int64                   `gorm:"default:0"`
	CreatedAt             string                  `gorm:"not null"`
	CreatedAtEpoch        int64                   `gorm:"index:idx_sessions_created,sort:desc;not null"`
	UpdatedAt             string
	EndedAt               sql.NullString
}

func (Session) TableName() string { return "sessions" }

// BeforeCreate hook to ensure timestamps are set.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if s.CreatedAtEpoch == 0 {
		s.CreatedAtEpoch = now.UnixMilli()
	}
	if s.CreatedAt == "" {
		s.CreatedAt = now.Format(time.RFC3339)
	}
	if s.UpdatedAt == "" {
		s.UpdatedAt = s.CreatedAt
	}
	return nil
}

// Message represents one conversation message row. Append-only.
type Message struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	SessionID      string `gorm:"index;not null"`
	Role           string `gorm:"type:text;check:role IN ('user', 'assistant');not null"`
	Content        string `gorm:"type:text;not null"`
	AudioPath      sql.NullString
	CreatedAt      string `gorm:"not null"`
	CreatedAtEpoch int64  `gorm:"index:idx_messages_created;not null"`
}

func (Message) TableName() string { return "messages" }

// BeforeCreate hook to ensure timestamps are set.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.CreatedAtEpoch == 0 {
		m.CreatedAtEpoch = now.UnixMilli()
	}
	if m.CreatedAt == "" {
		m.CreatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// Extraction represents one raw extraction pass (audit trail).
type Extraction struct {
	ID                int64                   `gorm:"primaryKey;autoIncrement"`
	SessionID         string                  `gorm:"index;not null"`
	ExtractionData    *models.KnowledgeRecord `gorm:"column:extraction_data;type:text"`
	MessageRangeStart int                     `gorm:"default:0"`
	MessageRangeEnd   int                     `gorm:"default:0"`
	CreatedAt         string                  `gorm:"not null"`
	CreatedAtEpoch    int64                   `gorm:"index:idx_extractions_created;not null"`
}

func (Extraction) TableName() string { return "extractions" }

// BeforeCreate hook to ensure timestamps are set.
func (e *Extraction) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if e.CreatedAtEpoch == 0 {
		e.CreatedAtEpoch = now.UnixMilli()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// Conversions to domain models.

func (s *Session) toModel() *models.Session {
	return &models.Session{
		ID:                    s.ID,
		ExpertName:            s.ExpertName,
		ExpertCallsign:        s.ExpertCallsign,
		Topics:                s.Topics,
		Status:                models.SessionStatus(s.Status),
		VoicePreset:           s.VoicePreset,
		SpeechRate:            s.SpeechRate,
		Knowledge:             s.ExtractedKnowledge,
		MessageCount:          s.MessageCount,
		TotalCharsSynthesized: s.TotalCharsSynthesized,
		EstimatedCost:         s.EstimatedCost,
		TotalDurationSeconds:  s.TotalDurationSeconds,
		CreatedAt:             s.CreatedAt,
		CreatedAtEpoch:        s.CreatedAtEpoch,
		UpdatedAt:             s.UpdatedAt,
		EndedAt:               s.EndedAt,
	}
}

func (m *Message) toModel() models.Message {
	return models.Message{
		ID:             m.ID,
		SessionID:      m.SessionID,
		Role:           models.MessageRole(m.Role),
		Content:        m.Content,
		AudioPath:      m.AudioPath,
		CreatedAt:      m.CreatedAt,
		CreatedAtEpoch: m.CreatedAtEpoch,
	}
}

func (e *Extraction) toModel() models.Extraction {
	return models.Extraction{
		ID:                e.ID,
		SessionID:         e.SessionID,
		Data:              e.ExtractionData,
		MessageRangeStart: e.MessageRangeStart,
		MessageRangeEnd:   e.MessageRangeEnd,
		CreatedAt:         e.CreatedAt,
		CreatedAtEpoch:    e.CreatedAtEpoch,
	}
}
