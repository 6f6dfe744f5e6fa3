package interview

import (
	"context"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// ProviderError marks a failure of an upstream provider (conversational
// model, speech synthesis, or extraction), distinguishing it from local
// persistence errors.
type ProviderError struct {
	Stage string
	Err   error
}

func (e *ProviderError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

// ModelClient is the conversational-model collaborator. Implemented by
// claude.Client; a fake stands in for tests.
type ModelClient interface {
	SendMessage(ctx context.Context, messages []models.ChatMessage, systemPrompt string, maxTokens int) (string, error)
	SendWithContext(ctx context.Context, messages []models.ChatMessage, systemPrompt string, knowledge *models.KnowledgeRecord, maxTokens int) (string, error)
}

// Synthesizer is the speech-synthesis collaborator. Synthesis is idempotent
// by content and voice: repeating a call returns the previously produced
// artifact. Implemented by tts.Client.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice models.VoiceConfig) (audioURL string, charCount int, err error)
	Cost(charCount int, presetKey string) float64
}

// SessionStore is the persistence collaborator for sessions.
type SessionStore interface {
	Create(ctx context.Context, p models.SessionParams) (*models.Session, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, status string) ([]*models.Session, error)
	UpdateKnowledge(ctx context.Context, id string, k *models.KnowledgeRecord) error
	AddSynthesisCost(ctx context.Context, id string, chars int, cost float64) (*models.Session, error)
	Complete(ctx context.Context, id string, messageCount int, durationSeconds int64) error
	Delete(ctx context.Context, id string) error
}

// MessageStore is the persistence collaborator for the conversation log.
type MessageStore interface {
	Append(ctx context.Context, sessionID string, role models.MessageRole, content string) (*models.Message, error)
	SetAudioPath(ctx context.Context, id int64, audioPath string) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Message, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

// ExtractionStore persists the audit trail of raw extraction passes.
type ExtractionStore interface {
	Append(ctx context.Context, sessionID string, data *models.KnowledgeRecord, rangeStart, rangeEnd int) (*models.Extraction, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Extraction, error)
}
