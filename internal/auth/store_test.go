package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)
	return store
}

func TestStoreMissingFileIsEmpty(t *testing.T) {
	store := testStore(t)
	assert.Empty(t, store.List())
}

func TestCreateAndValidate(t *testing.T) {
	store := testStore(t)

	token, err := store.Create("Steve Hajducek", "N2CKH")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	info, ok := store.Validate(token)
	require.True(t, ok)
	assert.Equal(t, "Steve Hajducek", info.Name)
	assert.Equal(t, "N2CKH", info.Callsign)
	assert.True(t, info.Active)
	require.NotNil(t, info.LastUsed)

	_, ok = store.Validate("not-a-token")
	assert.False(t, ok)
}

func TestValidatePersistsLastUsed(t *testing.T) {
	store := testStore(t)
	token, err := store.Create("Charles Brain", "G4GUO")
	require.NoError(t, err)

	_, ok := store.Validate(token)
	require.True(t, ok)

	// A fresh store reads last_used back from the file.
	reopened, err := NewStore(store.Path())
	require.NoError(t, err)
	info, ok := reopened.Validate(token)
	require.True(t, ok)
	assert.NotNil(t, info.LastUsed)
}

func TestRevokeDeactivates(t *testing.T) {
	store := testStore(t)
	token, err := store.Create("Steve Hajducek", "")
	require.NoError(t, err)

	found, err := store.Revoke(token)
	require.NoError(t, err)
	assert.True(t, found)

	_, ok := store.Validate(token)
	assert.False(t, ok)

	// Revoked tokens stay listed for audit.
	entries := store.List()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Active)
	assert.NotEmpty(t, entries[0].Revoked)

	found, err = store.Revoke("unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteRemoves(t *testing.T) {
	store := testStore(t)
	token, err := store.Create("Steve Hajducek", "")
	require.NoError(t, err)

	found, err := store.Delete(token)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, store.List())
}

func TestIncrementSessions(t *testing.T) {
	store := testStore(t)
	token, err := store.Create("Steve Hajducek", "")
	require.NoError(t, err)

	store.IncrementSessions(token)
	store.IncrementSessions(token)

	entries := store.List()
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].SessionsCount)
}

func TestListShortensTokens(t *testing.T) {
	store := testStore(t)
	token, err := store.Create("Steve Hajducek", "")
	require.NoError(t, err)

	entries := store.List()
	require.Len(t, entries, 1)
	assert.Equal(t, token[:8]+"...", entries[0].TokenShort)
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	store := testStore(t)

	file := tokensFile{Tokens: map[string]*TokenInfo{
		"external-token": {Name: "External", Active: true, Created: time.Now().Format(time.RFC3339)},
	}}
	data, err := json.MarshalIndent(file, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), data, 0o600))

	require.NoError(t, store.Reload())
	_, ok := store.Validate("external-token")
	assert.True(t, ok)
}

func TestRequireTokenMiddleware(t *testing.T) {
	store := testStore(t)
	token, err := store.Create("Steve Hajducek", "N2CKH")
	require.NoError(t, err)

	handler := RequireToken(store, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "N2CKH", info.Callsign)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTokenDisabled(t *testing.T) {
	store := testStore(t)

	handler := RequireToken(store, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	store := testStore(t)
	token, err := store.Create("Steve Hajducek", "")
	require.NoError(t, err)

	w, err := NewWatcher(store)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	// Rewrite the file externally with the token revoked.
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var file tokensFile
	require.NoError(t, json.Unmarshal(data, &file))
	file.Tokens[token].Active = false
	out, err := json.MarshalIndent(file, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), out, 0o600))

	require.Eventually(t, func() bool {
		entries := store.List()
		return len(entries) == 1 && !entries[0].Active
	}, 2*time.Second, 25*time.Millisecond)
}
