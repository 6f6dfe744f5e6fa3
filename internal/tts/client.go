// Package tts provides speech synthesis via the Google Cloud
// Text-to-Speech REST API, with content-addressed caching of the
// produced MP3 artifacts.
package tts

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Alex-Pennington/MARS-History-Project/internal/config"
	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// DefaultBaseURL is the Google Cloud TTS endpoint.
const DefaultBaseURL = "https://texttospeech.googleapis.com/v1"

// Client synthesizes speech and caches the resulting audio on disk.
// Artifacts are keyed by md5(content + voice name), so a repeated call with
// identical text and voice returns the cached file without resynthesizing,
// and concurrent writers of the same key are harmless.
type Client struct {
	apiKey       string
	languageCode string
	cacheDir     string
	baseURL      string
	httpClient   *http.Client
}

// Config holds TTS client configuration.
type Config struct {
	APIKey       string
	LanguageCode string
	CacheDir     string
	BaseURL      string // Defaults to DefaultBaseURL; overridable for tests
}

// NewClient creates a new TTS client and ensures the cache directory exists.
func NewClient(cfg Config) (*Client, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("audio cache directory is required")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio cache dir: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	languageCode := cfg.LanguageCode
	if languageCode == "" {
		languageCode = "en-US"
	}

	return &Client{
		apiKey:       cfg.APIKey,
		languageCode: languageCode,
		cacheDir:     cfg.CacheDir,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate,omitempty"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize converts text to speech using the session's voice
// configuration and returns the audio URL path and character count.
func (c *Client) Synthesize(ctx context.Context, text string, voice models.VoiceConfig) (string, int, error) {
	charCount := len(text)
	preset := config.Preset(voice.Preset)

	cacheKey := CacheKey(text, preset.Name)
	cachePath := filepath.Join(c.cacheDir, cacheKey+".mp3")

	if _, err := os.Stat(cachePath); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("TTS cache hit")
		return "/audio/" + cacheKey + ".mp3", charCount, nil
	}

	var req synthesizeRequest
	req.Input.Text = text
	req.Voice.LanguageCode = c.languageCode
	req.Voice.Name = preset.Name
	req.AudioConfig.AudioEncoding = "MP3"
	if preset.SupportsRate && voice.SpeechRate > 0 {
		req.AudioConfig.SpeakingRate = voice.SpeechRate
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", 0, fmt.Errorf("encode synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text:synthesize?key=%s", c.baseURL, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", 0, fmt.Errorf("synthesize speech: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var synthResp synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&synthResp); err != nil {
		return "", 0, fmt.Errorf("decode synthesis response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(synthResp.AudioContent)
	if err != nil {
		return "", 0, fmt.Errorf("decode audio content: %w", err)
	}

	// Last writer wins; concurrent writes of the same key produce identical
	// content.
	if err := os.WriteFile(cachePath, audio, 0o644); err != nil {
		return "", 0, fmt.Errorf("write audio cache: %w", err)
	}

	log.Debug().
		Str("cacheKey", cacheKey).
		Str("voice", preset.Name).
		Int("chars", charCount).
		Msg("synthesized speech")

	return "/audio/" + cacheKey + ".mp3", charCount, nil
}

// Cost returns the estimated cost of synthesizing charCount characters with
// the given preset's per-character rate.
func (c *Client) Cost(charCount int, presetKey string) float64 {
	return float64(charCount) * config.Preset(presetKey).CostPerChar
}

// ClearCache removes all cached audio files, returning the count deleted.
func (c *Client) ClearCache() (int, error) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mp3") {
			continue
		}
		if err := os.Remove(filepath.Join(c.cacheDir, e.Name())); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// CacheKey derives the content-addressed cache key for a text and voice.
func CacheKey(text, voiceName string) string {
	sum := md5.Sum([]byte(text + ":" + voiceName))
	return hex.EncodeToString(sum[:])
}
