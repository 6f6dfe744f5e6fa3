package models

import (
	"database/sql"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMarshalJSONFlattensNullables(t *testing.T) {
	sess := &Session{
		ID:             "abc",
		ExpertName:     "Steve Hajducek",
		ExpertCallsign: sql.NullString{String: "N2CKH", Valid: true},
		Status:         SessionStatusActive,
		VoicePreset:    "premium_female",
		SpeechRate:     0.95,
	}

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "N2CKH", out["expert_callsign"])
	assert.NotContains(t, string(data), "Valid")

	// Invalid nullables are omitted entirely.
	sess.ExpertCallsign = sql.NullString{}
	data, err = json.Marshal(sess)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "expert_callsign")
	assert.NotContains(t, string(data), "ended_at")
}

func TestMessageMarshalJSONAudioPath(t *testing.T) {
	msg := &Message{
		ID:        1,
		SessionID: "abc",
		Role:      RoleAssistant,
		Content:   "hello",
		AudioPath: sql.NullString{String: "/audio/x.mp3", Valid: true},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "/audio/x.mp3", out["audio_path"])
}

func TestKnowledgeRecordValueScan(t *testing.T) {
	k := &KnowledgeRecord{
		TopicsDiscussed: []string{"ALE"},
		KeyInsights:     []Insight{{Topic: "ALE", Insight: "dwell times", Importance: ImportanceHigh}},
	}

	v, err := k.Value()
	require.NoError(t, err)

	var back KnowledgeRecord
	require.NoError(t, back.Scan(v))
	assert.Equal(t, k.TopicsDiscussed, back.TopicsDiscussed)
	require.Len(t, back.KeyInsights, 1)
	assert.Equal(t, ImportanceHigh, back.KeyInsights[0].Importance)

	var nilRecord *KnowledgeRecord
	v, err = nilRecord.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestJSONStringArrayScan(t *testing.T) {
	var a JSONStringArray
	require.NoError(t, a.Scan(`["ALE","MS-DMT"]`))
	assert.Equal(t, JSONStringArray{"ALE", "MS-DMT"}, a)

	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)
}

func TestChatHistory(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: "Welcome."},
		{Role: RoleUser, Content: "Thanks."},
	}

	chat := ChatHistory(msgs)
	require.Len(t, chat, 2)
	assert.Equal(t, ChatMessage{Role: RoleAssistant, Content: "Welcome."}, chat[0])
	assert.Equal(t, ChatMessage{Role: RoleUser, Content: "Thanks."}, chat[1])
}
