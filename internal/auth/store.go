// Package auth provides token-based access control backed by a JSON
// tokens file. The file is the source of truth so tokens can be managed
// with the CLI while the server is running; a Watcher reloads the
// in-memory view when the file changes on disk.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// TokenInfo holds the metadata stored per access token.
type TokenInfo struct {
	Name          string  `json:"name"`
	Callsign      string  `json:"callsign,omitempty"`
	Created       string  `json:"created"`
	Active        bool    `json:"active"`
	LastUsed      *string `json:"last_used"`
	SessionsCount int     `json:"sessions_count"`
	Revoked       string  `json:"revoked,omitempty"`
}

// TokenEntry pairs a token with its metadata for listings.
type TokenEntry struct {
	Token      string `json:"token"`
	TokenShort string `json:"token_short"`
	TokenInfo
}

type tokensFile struct {
	Tokens map[string]*TokenInfo `json:"tokens"`
}

// Store manages access tokens in a JSON file with an in-memory cache.
// All mutating operations rewrite the file atomically.
type Store struct {
	path string

	mu     sync.RWMutex
	tokens map[string]*TokenInfo
}

// NewStore opens the tokens file at path, creating an empty store when
// the file does not exist yet.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, tokens: make(map[string]*TokenInfo)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the tokens file path.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces the in-memory view with the file's current contents.
// A missing file yields an empty store.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		s.tokens = make(map[string]*TokenInfo)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read tokens file: %w", err)
	}

	var file tokensFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse tokens file: %w", err)
	}
	if file.Tokens == nil {
		file.Tokens = make(map[string]*TokenInfo)
	}

	s.mu.Lock()
	s.tokens = file.Tokens
	s.mu.Unlock()
	return nil
}

// Create generates a new token for the named user and persists it.
func (s *Store) Create(name, callsign string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = &TokenInfo{
		Name:     name,
		Callsign: callsign,
		Created:  time.Now().Format(time.RFC3339),
		Active:   true,
	}
	if err := s.saveLocked(); err != nil {
		delete(s.tokens, token)
		return "", err
	}
	return token, nil
}

// Validate checks whether the token exists and is active. On success it
// stamps last_used and returns a copy of the token's metadata.
func (s *Store) Validate(token string) (*TokenInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.tokens[token]
	if !ok || !info.Active {
		return nil, false
	}

	now := time.Now().Format(time.RFC3339)
	info.LastUsed = &now
	if err := s.saveLocked(); err != nil {
		log.Warn().Err(err).Msg("failed to persist token last_used")
	}

	out := *info
	return &out, true
}

// IncrementSessions bumps the token's session counter.
func (s *Store) IncrementSessions(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.tokens[token]
	if !ok {
		return
	}
	info.SessionsCount++
	if err := s.saveLocked(); err != nil {
		log.Warn().Err(err).Msg("failed to persist token session count")
	}
}

// Revoke deactivates a token, keeping its record for audit.
func (s *Store) Revoke(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.tokens[token]
	if !ok {
		return false, nil
	}
	info.Active = false
	info.Revoked = time.Now().Format(time.RFC3339)
	return true, s.saveLocked()
}

// Delete permanently removes a token.
func (s *Store) Delete(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; !ok {
		return false, nil
	}
	delete(s.tokens, token)
	return true, s.saveLocked()
}

// List returns all tokens newest first.
func (s *Store) List() []TokenEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]TokenEntry, 0, len(s.tokens))
	for token, info := range s.tokens {
		entries = append(entries, TokenEntry{
			Token:      token,
			TokenShort: shortToken(token),
			TokenInfo:  *info,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Created > entries[j].Created
	})
	return entries
}

// saveLocked writes the tokens file. Callers hold s.mu.
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create tokens dir: %w", err)
	}

	data, err := json.MarshalIndent(tokensFile{Tokens: s.tokens}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tokens file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// generateToken returns a 16-byte URL-safe random token.
func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func shortToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
