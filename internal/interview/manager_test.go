package interview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	dbgorm "github.com/Alex-Pennington/MARS-History-Project/internal/db/gorm"
	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// scriptedModel answers the interviewer and extractor prompts separately so
// tests can drive both paths through one ModelClient.
type scriptedModel struct {
	interviewerReply string
	extractorReply   string
	interviewerErr   error
	extractorCalls   atomic.Int64
}

func (s *scriptedModel) SendMessage(ctx context.Context, messages []models.ChatMessage, systemPrompt string, maxTokens int) (string, error) {
	if systemPrompt == ExtractorSystemPrompt {
		s.extractorCalls.Add(1)
		return s.extractorReply, nil
	}
	if s.interviewerErr != nil {
		return "", s.interviewerErr
	}
	return s.interviewerReply, nil
}

func (s *scriptedModel) SendWithContext(ctx context.Context, messages []models.ChatMessage, systemPrompt string, knowledge *models.KnowledgeRecord, maxTokens int) (string, error) {
	return s.SendMessage(ctx, messages, systemPrompt, maxTokens)
}

type fakeSynth struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, voice models.VoiceConfig) (string, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	n := f.calls.Add(1)
	return fmt.Sprintf("/audio/fake-%d.mp3", n), len(text), nil
}

func (f *fakeSynth) Cost(charCount int, presetKey string) float64 {
	return float64(charCount) * 0.000016
}

type managerFixture struct {
	manager     *Manager
	model       *scriptedModel
	synth       *fakeSynth
	messages    *dbgorm.MessageStore
	extractions *dbgorm.ExtractionStore
}

func newManagerFixture(t *testing.T, cfg ManagerConfig) *managerFixture {
	t.Helper()

	store, err := dbgorm.NewStore(dbgorm.Config{
		Path:     filepath.Join(t.TempDir(), "interviews.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	model := &scriptedModel{
		interviewerReply: "That is fascinating. What happened next?",
		extractorReply:   `{"topics_discussed": ["ALE"], "key_insights": [{"topic": "ALE", "insight": "dwell times mattered", "importance": "high"}]}`,
	}
	synth := &fakeSynth{}

	return &managerFixture{
		manager: NewManager(cfg, model, synth,
			dbgorm.NewSessionStore(store),
			dbgorm.NewMessageStore(store),
			dbgorm.NewExtractionStore(store)),
		model:       model,
		synth:       synth,
		messages:    dbgorm.NewMessageStore(store),
		extractions: dbgorm.NewExtractionStore(store),
	}
}

func startSession(t *testing.T, f *managerFixture) *models.SessionCreated {
	t.Helper()
	created, err := f.manager.CreateSession(context.Background(), models.SessionParams{
		ExpertName:     "Steve Hajducek",
		ExpertCallsign: "N2CKH",
		Topics:         []string{"ALE", "MS-DMT", "HF propagation"},
		VoicePreset:    "premium_female",
		SpeechRate:     0.95,
	})
	require.NoError(t, err)
	return created
}

func TestCreateSessionGreeting(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	created := startSession(t, f)

	assert.NotEmpty(t, created.SessionID)
	assert.Contains(t, created.Greeting, "Hello N2CKH")
	assert.Contains(t, created.Greeting, "ALE, MS-DMT") // first two topics only
	assert.NotContains(t, created.Greeting, "HF propagation")
	assert.Contains(t, created.AudioURL, "/audio/")
	assert.Equal(t, int64(len(created.Greeting)), created.CharsSynthesized)
	assert.Greater(t, created.SessionCost, 0.0)

	msgs, err := f.messages.ListBySession(context.Background(), created.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Equal(t, created.AudioURL, msgs[0].AudioPath.String)
}

func TestProcessTurnAppendsExchange(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	created := startSession(t, f)

	result, err := f.manager.ProcessTurn(context.Background(), created.SessionID, "I started with PC-ALE in 1998.")
	require.NoError(t, err)

	assert.Equal(t, f.model.interviewerReply, result.ResponseText)
	assert.Equal(t, 1, result.ExchangeCount)
	assert.False(t, result.ExtractionTriggered)
	assert.Greater(t, result.SessionCost, created.SessionCost)
	assert.Greater(t, result.TotalChars, created.CharsSynthesized)

	msgs, err := f.messages.ListBySession(context.Background(), created.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, models.RoleAssistant, msgs[2].Role)
	assert.Equal(t, result.AudioURL, msgs[2].AudioPath.String)
}

func TestProcessTurnExtractionAtInterval(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{ExtractionInterval: 2})
	created := startSession(t, f)
	ctx := context.Background()

	first, err := f.manager.ProcessTurn(ctx, created.SessionID, "We ran ALE on surplus radios.")
	require.NoError(t, err)
	assert.False(t, first.ExtractionTriggered)
	assert.Equal(t, int64(0), f.model.extractorCalls.Load())

	second, err := f.manager.ProcessTurn(ctx, created.SessionID, "Dwell times were the hard part.")
	require.NoError(t, err)
	assert.True(t, second.ExtractionTriggered)
	assert.Equal(t, 2, second.ExchangeCount)
	assert.Equal(t, int64(1), f.model.extractorCalls.Load())

	k, err := f.manager.GetKnowledge(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALE"}, k.TopicsDiscussed)
	require.Len(t, k.KeyInsights, 1)

	audits, err := f.extractions.ListBySession(ctx, created.SessionID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, 0, audits[0].MessageRangeStart)
	assert.Equal(t, 5, audits[0].MessageRangeEnd)
}

func TestGetKnowledgeEmptyBeforeExtraction(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	created := startSession(t, f)

	k, err := f.manager.GetKnowledge(context.Background(), created.SessionID)
	require.NoError(t, err)
	assert.True(t, k.IsEmpty())
}

func TestEndSession(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	created := startSession(t, f)
	ctx := context.Background()

	_, err := f.manager.ProcessTurn(ctx, created.SessionID, "The MIL-STD-188-141 work came later.")
	require.NoError(t, err)

	stats, err := f.manager.EndSession(ctx, created.SessionID)
	require.NoError(t, err)

	assert.Equal(t, string(models.SessionStatusCompleted), stats.Status)
	assert.Equal(t, 1, stats.ExchangeCount)
	assert.Equal(t, "/api/transcript/"+created.SessionID, stats.TranscriptURL)
	assert.Equal(t, "/api/extraction/"+created.SessionID, stats.ExtractionURL)

	// Ending always forces a final extraction pass.
	assert.Equal(t, int64(1), f.model.extractorCalls.Load())

	sess, _, err := f.manager.GetTranscript(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, sess.Status)
}

func TestProcessTurnModelErrorLeavesUserMessage(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	created := startSession(t, f)
	f.model.interviewerErr = errors.New("overloaded")

	_, err := f.manager.ProcessTurn(context.Background(), created.SessionID, "Testing on 60 meters.")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "conversational model"))

	// The expert's input is preserved even when the turn fails.
	msgs, listErr := f.messages.ListBySession(context.Background(), created.SessionID)
	require.NoError(t, listErr)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
}

func TestProcessTurnSynthesisError(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})
	created := startSession(t, f)
	f.synth.err = errors.New("tts quota")

	_, err := f.manager.ProcessTurn(context.Background(), created.SessionID, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speech synthesis")
}

func TestProcessTurnUnknownSession(t *testing.T) {
	f := newManagerFixture(t, ManagerConfig{})

	_, err := f.manager.ProcessTurn(context.Background(), "no-such-session", "hello")
	assert.ErrorIs(t, err, dbgorm.ErrSessionNotFound)
}

func TestGreeting(t *testing.T) {
	g := Greeting("Charles Brain", "", []string{"HF modems"})
	assert.Contains(t, g, "Hello Charles")
	assert.Contains(t, g, "HF modems")

	g = Greeting("Charles Brain", "G4GUO", nil)
	assert.Contains(t, g, "Hello G4GUO")
	assert.NotContains(t, g, "expertise in")
}
