package gorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

func TestMessageAppendAndList(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	messages := NewMessageStore(store)
	createTestSession(t, sessions, "sess-m")

	ctx := context.Background()
	_, err := messages.Append(ctx, "sess-m", models.RoleAssistant, "Hello, thank you for joining us.")
	require.NoError(t, err)
	_, err = messages.Append(ctx, "sess-m", models.RoleUser, "Glad to be here.")
	require.NoError(t, err)

	msgs, err := messages.ListBySession(ctx, "sess-m")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Creation order is preserved
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.NotZero(t, msgs[0].CreatedAtEpoch)

	count, err := messages.CountBySession(ctx, "sess-m")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMessageSetAudioPath(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	messages := NewMessageStore(store)
	createTestSession(t, sessions, "sess-a")

	ctx := context.Background()
	msg, err := messages.Append(ctx, "sess-a", models.RoleAssistant, "greeting text")
	require.NoError(t, err)
	assert.False(t, msg.AudioPath.Valid)

	require.NoError(t, messages.SetAudioPath(ctx, msg.ID, "/audio/abc123.mp3"))

	msgs, err := messages.ListBySession(ctx, "sess-a")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "/audio/abc123.mp3", msgs[0].AudioPath.String)
}

func TestExtractionAppendAndList(t *testing.T) {
	store := testStore(t)
	sessions := NewSessionStore(store)
	extractions := NewExtractionStore(store)
	createTestSession(t, sessions, "sess-x")

	ctx := context.Background()
	data := &models.KnowledgeRecord{TopicsDiscussed: []string{"HF propagation"}}
	_, err := extractions.Append(ctx, "sess-x", data, 0, 20)
	require.NoError(t, err)

	exts, err := extractions.ListBySession(ctx, "sess-x")
	require.NoError(t, err)
	require.Len(t, exts, 1)
	assert.Equal(t, 20, exts[0].MessageRangeEnd)
	require.NotNil(t, exts[0].Data)
	assert.Equal(t, []string{"HF propagation"}, exts[0].Data.TopicsDiscussed)
}
