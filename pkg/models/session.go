// Package models contains domain models for the MARS History Project
// interview service.
package models

import (
	"database/sql"

	"github.com/goccy/go-json"
)

// SessionStatus represents the lifecycle status of an interview session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// VoiceConfig selects the synthesis voice and speaking rate for a session.
type VoiceConfig struct {
	Preset     string  `json:"voice_preset"`
	SpeechRate float64 `json:"speech_rate"`
}

// Session represents one oral-history interview with an expert.
type Session struct {
	ID                    string           `db:"id" json:"session_id"`
	ExpertName            string           `db:"expert_name" json:"expert_name"`
	ExpertCallsign        sql.NullString   `db:"expert_callsign" json:"expert_callsign,omitempty"`
	Topics                JSONStringArray  `db:"topics" json:"topics,omitempty"`
	Status                SessionStatus    `db:"status" json:"status"`
	VoicePreset           string           `db:"voice_preset" json:"voice_preset"`
	SpeechRate            float64          `db:"speech_rate" json:"speech_rate"`
	Knowledge             *KnowledgeRecord `db:"extracted_knowledge" json:"extracted_knowledge,omitempty"`
	MessageCount          int              `db:"message_count" json:"message_count"`
	TotalCharsSynthesized int64            `db:"total_chars_synthesized" json:"total_chars_synthesized"`
	EstimatedCost         float64          `db:"estimated_cost" json:"estimated_cost"`
	TotalDurationSeconds  int64            `db:"total_duration_seconds" json:"total_duration_seconds"`
	CreatedAt             string           `db:"created_at" json:"created_at"`
	CreatedAtEpoch        int64            `db:"created_at_epoch" json:"created_at_epoch"`
	UpdatedAt             string           `db:"updated_at" json:"updated_at"`
	EndedAt               sql.NullString   `db:"ended_at" json:"ended_at,omitempty"`
}

// Voice returns the session's voice configuration.
func (s *Session) Voice() VoiceConfig {
	return VoiceConfig{Preset: s.VoicePreset, SpeechRate: s.SpeechRate}
}

// SessionJSON is the API representation of Session with nullable fields
// flattened to plain strings.
type SessionJSON struct {
	ID                    string           `json:"session_id"`
	ExpertName            string           `json:"expert_name"`
	ExpertCallsign        string           `json:"expert_callsign,omitempty"`
	Topics                []string         `json:"topics,omitempty"`
	Status                SessionStatus    `json:"status"`
	VoicePreset           string           `json:"voice_preset"`
	SpeechRate            float64          `json:"speech_rate"`
	Knowledge             *KnowledgeRecord `json:"extracted_knowledge,omitempty"`
	MessageCount          int              `json:"message_count"`
	TotalCharsSynthesized int64            `json:"total_chars_synthesized"`
	EstimatedCost         float64          `json:"estimated_cost"`
	TotalDurationSeconds  int64            `json:"total_duration_seconds"`
	CreatedAt             string           `json:"created_at"`
	CreatedAtEpoch        int64            `json:"created_at_epoch"`
	UpdatedAt             string           `json:"updated_at"`
	EndedAt               string           `json:"ended_at,omitempty"`
}

// MarshalJSON implements json.Marshaler for Session.
// Converts sql.NullString fields to plain strings.
func (s *Session) MarshalJSON() ([]byte, error) {
	j := SessionJSON{
		ID:                    s.ID,
		ExpertName:            s.ExpertName,
		Topics:                s.Topics,
		Status:                s.Status,
		VoicePreset:           s.VoicePreset,
		SpeechRate:            s.SpeechRate,
		Knowledge:             s.Knowledge,
		MessageCount:          s.MessageCount,
		TotalCharsSynthesized: s.TotalCharsSynthesized,
		EstimatedCost:         s.EstimatedCost,
		TotalDurationSeconds:  s.TotalDurationSeconds,
		CreatedAt:             s.CreatedAt,
		CreatedAtEpoch:        s.CreatedAtEpoch,
		UpdatedAt:             s.UpdatedAt,
	}
	if s.ExpertCallsign.Valid {
		j.ExpertCallsign = s.ExpertCallsign.String
	}
	if s.EndedAt.Valid {
		j.EndedAt = s.EndedAt.String
	}
	return json.Marshal(j)
}

// SessionParams holds the caller-supplied fields for a new session.
type SessionParams struct {
	ID             string
	ExpertName     string
	ExpertCallsign string
	Topics         []string
	VoicePreset    string
	SpeechRate     float64
}

// SessionCreated is the response payload for a newly created session.
type SessionCreated struct {
	SessionID        string  `json:"session_id"`
	Greeting         string  `json:"greeting"`
	AudioURL         string  `json:"audio_url"`
	VoicePreset      string  `json:"voice_preset"`
	SpeechRate       float64 `json:"speech_rate"`
	SessionCost      float64 `json:"session_cost"`
	CharsSynthesized int64   `json:"chars_synthesized"`
}

// TurnResult is the response payload for one processed interview turn.
type TurnResult struct {
	SessionID           string  `json:"session_id"`
	ResponseText        string  `json:"response_text"`
	AudioURL            string  `json:"audio_url"`
	ExchangeCount       int     `json:"message_count"`
	ExtractionTriggered bool    `json:"extraction_triggered"`
	CharsThisResponse   int     `json:"chars_this_response"`
	SessionCost         float64 `json:"session_cost"`
	TotalChars          int64   `json:"total_chars"`
}

// SessionStats is the response payload for an ended session.
type SessionStats struct {
	SessionID             string  `json:"session_id"`
	Status                string  `json:"status"`
	ExchangeCount         int     `json:"message_count"`
	DurationSeconds       int64   `json:"duration_seconds"`
	TranscriptURL         string  `json:"transcript_url"`
	ExtractionURL         string  `json:"extraction_url"`
	TotalCharsSynthesized int64   `json:"total_chars_synthesized"`
	TotalCost             float64 `json:"total_cost"`
}
