package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// extractionLookback bounds how many recent messages one extraction pass
// covers, keeping extraction cost independent of interview length.
const extractionLookback = 20

// Manager orchestrates interview sessions: it sequences each turn through
// persistence, the conversational model, speech synthesis and conditional
// knowledge extraction. All collaborators are injected; the Manager holds
// no hidden mutable state and is safe for concurrent use across sessions.
// Callers must not process two turns of the same session concurrently.
type Manager struct {
	model       ModelClient
	synth       Synthesizer
	sessions    SessionStore
	messages    MessageStore
	extractions ExtractionStore
	window      *ContextWindow
	extractor   *Extractor
	maxTokens   int
	metrics     *meters
}

// ManagerConfig holds orchestrator tunables.
type ManagerConfig struct {
	MaxContextMessages int
	ExtractionInterval int
	MaxTokens          int
}

// NewManager creates an orchestrator with injected collaborators.
func NewManager(cfg ManagerConfig, model ModelClient, synth Synthesizer, sessions SessionStore, messages MessageStore, extractions ExtractionStore) *Manager {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &Manager{
		model:       model,
		synth:       synth,
		sessions:    sessions,
		messages:    messages,
		extractions: extractions,
		window:      NewContextWindow(cfg.MaxContextMessages, cfg.ExtractionInterval),
		extractor:   NewExtractor(model),
		maxTokens:   maxTokens,
		metrics:     newMeters(),
	}
}

// CreateSession starts a new interview: persists the session, generates
// and synthesizes a personalized greeting, and records it as the first
// assistant message.
func (m *Manager) CreateSession(ctx context.Context, p models.SessionParams) (*models.SessionCreated, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	sess, err := m.sessions.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	greeting := Greeting(p.ExpertName, p.ExpertCallsign, p.Topics)

	msg, err := m.messages.Append(ctx, sess.ID, models.RoleAssistant, greeting)
	if err != nil {
		return nil, err
	}

	audioURL, charCount, err := m.synth.Synthesize(ctx, greeting, sess.Voice())
	if err != nil {
		return nil, &ProviderError{Stage: "speech synthesis", Err: err}
	}
	if err := m.messages.SetAudioPath(ctx, msg.ID, audioURL); err != nil {
		return nil, err
	}

	cost := m.synth.Cost(charCount, sess.VoicePreset)
	updated, err := m.sessions.AddSynthesisCost(ctx, sess.ID, charCount, cost)
	if err != nil {
		return nil, err
	}
	m.metrics.synthChars.Add(ctx, int64(charCount))

	log.Info().
		Str("sessionId", sess.ID).
		Str("expert", p.ExpertName).
		Str("voice", sess.VoicePreset).
		Msg("created interview session")

	return &models.SessionCreated{
		SessionID:        sess.ID,
		Greeting:         greeting,
		AudioURL:         audioURL,
		VoicePreset:      sess.VoicePreset,
		SpeechRate:       sess.SpeechRate,
		SessionCost:      round4(updated.EstimatedCost),
		CharsSynthesized: updated.TotalCharsSynthesized,
	}, nil
}

// ProcessTurn runs one interview turn: persist the expert's input, build
// the bounded context, invoke the model, persist and synthesize the reply,
// and conditionally run extraction. Strictly sequential; a provider failure
// surfaces as an error with the already-appended user message left in
// place.
func (m *Manager) ProcessTurn(ctx context.Context, sessionID, userText string) (*models.TurnResult, error) {
	sess, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := m.messages.Append(ctx, sessionID, models.RoleUser, userText); err != nil {
		return nil, err
	}

	history, err := m.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	messageCount := len(history)

	contextMessages := m.window.Build(history, sess.Knowledge)

	replyText, err := m.model.SendWithContext(ctx, contextMessages, InterviewerSystemPrompt, sess.Knowledge, m.maxTokens)
	if err != nil {
		return nil, &ProviderError{Stage: "conversational model", Err: err}
	}

	reply, err := m.messages.Append(ctx, sessionID, models.RoleAssistant, replyText)
	if err != nil {
		return nil, err
	}

	audioURL, charCount, err := m.synth.Synthesize(ctx, replyText, sess.Voice())
	if err != nil {
		return nil, &ProviderError{Stage: "speech synthesis", Err: err}
	}
	if err := m.messages.SetAudioPath(ctx, reply.ID, audioURL); err != nil {
		return nil, err
	}

	cost := m.synth.Cost(charCount, sess.VoicePreset)
	updated, err := m.sessions.AddSynthesisCost(ctx, sessionID, charCount, cost)
	if err != nil {
		return nil, err
	}
	m.metrics.synthChars.Add(ctx, int64(charCount))
	m.metrics.turns.Add(ctx, 1)

	extractionTriggered := false
	if m.window.ShouldExtract(messageCount + 1) {
		if err := m.runExtraction(ctx, sessionID); err != nil {
			return nil, &ProviderError{Stage: "knowledge extraction", Err: err}
		}
		extractionTriggered = true
	}

	return &models.TurnResult{
		SessionID:           sessionID,
		ResponseText:        replyText,
		AudioURL:            audioURL,
		ExchangeCount:       (messageCount + 1) / 2,
		ExtractionTriggered: extractionTriggered,
		CharsThisResponse:   charCount,
		SessionCost:         round4(updated.EstimatedCost),
		TotalChars:          updated.TotalCharsSynthesized,
	}, nil
}

// GetTranscript returns the session's ordered conversation log.
func (m *Manager) GetTranscript(ctx context.Context, sessionID string) (*models.Session, []models.Message, error) {
	sess, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := m.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess, msgs, nil
}

// GetKnowledge returns the session's merged knowledge record, or the empty
// record when no extraction has run yet.
func (m *Manager) GetKnowledge(ctx context.Context, sessionID string) (*models.KnowledgeRecord, error) {
	sess, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Knowledge == nil {
		return models.EmptyKnowledgeRecord(), nil
	}
	return sess.Knowledge, nil
}

// EndSession forces a final extraction pass regardless of the trigger,
// marks the session completed, and computes the wall-clock duration from
// first-to-last message timestamps.
func (m *Manager) EndSession(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	if _, err := m.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	if err := m.runExtraction(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("final extraction failed")
	}

	msgs, err := m.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var durationSeconds int64
	if len(msgs) > 0 {
		durationSeconds = (msgs[len(msgs)-1].CreatedAtEpoch - msgs[0].CreatedAtEpoch) / 1000
	}

	if err := m.sessions.Complete(ctx, sessionID, len(msgs), durationSeconds); err != nil {
		return nil, err
	}

	final, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Int("messages", len(msgs)).
		Int64("durationSeconds", durationSeconds).
		Msg("ended interview session")

	return &models.SessionStats{
		SessionID:             sessionID,
		Status:                string(models.SessionStatusCompleted),
		ExchangeCount:         len(msgs) / 2,
		DurationSeconds:       durationSeconds,
		TranscriptURL:         "/api/transcript/" + sessionID,
		ExtractionURL:         "/api/extraction/" + sessionID,
		TotalCharsSynthesized: final.TotalCharsSynthesized,
		TotalCost:             round4(final.EstimatedCost),
	}, nil
}

// ListSessions returns sessions newest first, optionally filtered by
// status.
func (m *Manager) ListSessions(ctx context.Context, status string) ([]*models.Session, error) {
	return m.sessions.List(ctx, status)
}

// DeleteSession removes a session with its messages and extractions.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	return m.sessions.Delete(ctx, sessionID)
}

// GetExtractions returns the session's extraction audit trail.
func (m *Manager) GetExtractions(ctx context.Context, sessionID string) ([]models.Extraction, error) {
	if _, err := m.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return m.extractions.ListBySession(ctx, sessionID)
}

// runExtraction extracts knowledge from the last extractionLookback
// messages, merges it into the session's record, and appends the raw
// output to the audit trail.
func (m *Manager) runExtraction(ctx context.Context, sessionID string) error {
	sess, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	msgs, err := m.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	rangeStart := 0
	if len(msgs) > extractionLookback {
		rangeStart = len(msgs) - extractionLookback
	}
	segment := models.ChatHistory(msgs[rangeStart:])

	extracted, err := m.extractor.Extract(ctx, segment, sess.Knowledge)
	if err != nil {
		return err
	}

	merged := Merge(sess.Knowledge, extracted)
	if err := m.sessions.UpdateKnowledge(ctx, sessionID, merged); err != nil {
		return err
	}

	if _, err := m.extractions.Append(ctx, sessionID, extracted, rangeStart, len(msgs)); err != nil {
		return err
	}
	m.metrics.extractions.Add(ctx, 1)

	log.Debug().
		Str("sessionId", sessionID).
		Int("rangeStart", rangeStart).
		Int("rangeEnd", len(msgs)).
		Msg("extraction pass complete")

	return nil
}

// Greeting builds the personalized opening for a new interview.
func Greeting(expertName, expertCallsign string, topics []string) string {
	nameToUse := expertCallsign
	if nameToUse == "" {
		if fields := strings.Fields(expertName); len(fields) > 0 {
			nameToUse = fields[0]
		} else {
			nameToUse = expertName
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Hello %s, thank you for joining us today for the MARS Digital History Project. ", nameToUse))
	sb.WriteString("I'm looking forward to learning about your experiences and capturing your valuable knowledge. ")
	if len(topics) > 0 {
		shown := topics
		if len(shown) > 2 {
			shown = shown[:2]
		}
		sb.WriteString(fmt.Sprintf("I understand you have expertise in %s. ", strings.Join(shown, ", ")))
	}
	sb.WriteString("Before we begin, could you tell me a bit about how you first got involved in HF digital communications?")
	return sb.String()
}

func round4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}
