package gorm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

func createTestSession(t *testing.T, store *SessionStore, id string) *models.Session {
	t.Helper()

	sess, err := store.Create(context.Background(), models.SessionParams{
		ID:             id,
		ExpertName:     "Steve Hajducek",
		ExpertCallsign: "N2CKH",
		Topics:         []string{"ALE", "MS-DMT"},
		VoicePreset:    "premium_female",
		SpeechRate:     0.95,
	})
	require.NoError(t, err)
	return sess
}

func TestSessionCreateAndGet(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)

	created := createTestSession(t, sessions, "sess-1")
	assert.Equal(t, models.SessionStatusActive, created.Status)
	assert.NotEmpty(t, created.CreatedAt)
	assert.NotZero(t, created.CreatedAtEpoch)

	got, err := sessions.GetByID(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Steve Hajducek", got.ExpertName)
	assert.Equal(t, "N2CKH", got.ExpertCallsign.String)
	assert.Equal(t, []string{"ALE", "MS-DMT"}, []string(got.Topics))
	assert.Nil(t, got.Knowledge)
}

func TestSessionGetNotFound(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)

	_, err := sessions.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionUpdateKnowledge(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	createTestSession(t, sessions, "sess-k")

	k := &models.KnowledgeRecord{
		TopicsDiscussed: []string{"ALE scanning"},
		KeyInsights: []models.Insight{
			{Topic: "ALE", Insight: "Timing matters", Importance: models.ImportanceHigh},
		},
	}
	require.NoError(t, sessions.UpdateKnowledge(context.Background(), "sess-k", k))

	got, err := sessions.GetByID(context.Background(), "sess-k")
	require.NoError(t, err)
	require.NotNil(t, got.Knowledge)
	assert.Equal(t, []string{"ALE scanning"}, got.Knowledge.TopicsDiscussed)
	assert.Len(t, got.Knowledge.KeyInsights, 1)
	assert.Equal(t, models.ImportanceHigh, got.Knowledge.KeyInsights[0].Importance)

	err = sessions.UpdateKnowledge(context.Background(), "missing", k)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionAddSynthesisCost(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	createTestSession(t, sessions, "sess-c")

	sess, err := sessions.AddSynthesisCost(context.Background(), "sess-c", 150, 0.0045)
	require.NoError(t, err)
	assert.Equal(t, int64(150), sess.TotalCharsSynthesized)
	assert.InDelta(t, 0.0045, sess.EstimatedCost, 1e-9)

	// Increments accumulate atomically
	sess, err = sessions.AddSynthesisCost(context.Background(), "sess-c", 50, 0.0015)
	require.NoError(t, err)
	assert.Equal(t, int64(200), sess.TotalCharsSynthesized)
	assert.InDelta(t, 0.006, sess.EstimatedCost, 1e-9)
}

func TestSessionComplete(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	createTestSession(t, sessions, "sess-e")

	require.NoError(t, sessions.Complete(context.Background(), "sess-e", 42, 1800))

	got, err := sessions.GetByID(context.Background(), "sess-e")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, got.Status)
	assert.Equal(t, 42, got.MessageCount)
	assert.Equal(t, int64(1800), got.TotalDurationSeconds)
	assert.True(t, got.EndedAt.Valid)
}

func TestSessionList(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	createTestSession(t, sessions, "sess-a")
	createTestSession(t, sessions, "sess-b")
	require.NoError(t, sessions.Complete(context.Background(), "sess-a", 0, 0))

	all, err := sessions.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := sessions.List(context.Background(), "completed")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "sess-a", completed[0].ID)
}

func TestSessionDeleteCascades(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	messages := NewMessageStore(store)
	extractions := NewExtractionStore(store)
	createTestSession(t, sessions, "sess-d")

	_, err := messages.Append(context.Background(), "sess-d", models.RoleUser, "hello")
	require.NoError(t, err)
	_, err = extractions.Append(context.Background(), "sess-d", models.EmptyKnowledgeRecord(), 0, 1)
	require.NoError(t, err)

	require.NoError(t, sessions.Delete(context.Background(), "sess-d"))

	_, err = sessions.GetByID(context.Background(), "sess-d")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	msgs, err := messages.ListBySession(context.Background(), "sess-d")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	exts, err := extractions.ListBySession(context.Background(), "sess-d")
	require.NoError(t, err)
	assert.Empty(t, exts)
}
