// Package config provides configuration management for the interview service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults for interview tunables.
const (
	DefaultModel              = "claude-sonnet-4-20250514"
	DefaultMaxTokens          = 300
	DefaultMaxContextMessages = 30
	DefaultExtractionInterval = 10
	DefaultVoice              = "premium_female"
	DefaultSpeechRate         = 0.95
	DefaultPort               = 5000
	DefaultMaxConns           = 4
)

// VoicePreset describes one synthesis voice tier with its per-character cost.
type VoicePreset struct {
	Name           string  `yaml:"name" json:"name"`
	DisplayName    string  `yaml:"display_name" json:"display_name"`
	Tier           string  `yaml:"tier" json:"tier"`
	Gender         string  `yaml:"gender" json:"gender"`
	CostPerChar    float64 `yaml:"cost_per_char" json:"cost_per_char"`
	HourlyEstimate string  `yaml:"hourly_estimate" json:"hourly_estimate"`
	SupportsRate   bool    `yaml:"supports_rate" json:"supports_rate"`
}

// VoicePresets maps preset keys (tier_gender) to synthesis voices.
// Costs follow the Google Cloud TTS price sheet per tier.
var VoicePresets = map[string]VoicePreset{
	"budget_female": {
		Name: "en-US-Wavenet-F", DisplayName: "Budget - Female",
		Tier: "budget", Gender: "female",
		CostPerChar: 0.000004, HourlyEstimate: "$0.15/hour", SupportsRate: true,
	},
	"budget_male": {
		Name: "en-US-Wavenet-D", DisplayName: "Budget - Male",
		Tier: "budget", Gender: "male",
		CostPerChar: 0.000004, HourlyEstimate: "$0.15/hour", SupportsRate: true,
	},
	"standard_female": {
		Name: "en-US-Neural2-F", DisplayName: "Standard - Female",
		Tier: "standard", Gender: "female",
		CostPerChar: 0.000016, HourlyEstimate: "$0.50/hour", SupportsRate: true,
	},
	"standard_male": {
		Name: "en-US-Neural2-D", DisplayName: "Standard - Male",
		Tier: "standard", Gender: "male",
		CostPerChar: 0.000016, HourlyEstimate: "$0.50/hour", SupportsRate: true,
	},
	// Chirp HD voices don't support rate adjustment
	"premium_female": {
		Name: "en-US-Chirp3-HD-Kore", DisplayName: "Premium - Female",
		Tier: "premium", Gender: "female",
		CostPerChar: 0.00003, HourlyEstimate: "$1.00/hour", SupportsRate: false,
	},
	"premium_male": {
		Name: "en-US-Chirp3-HD-Charon", DisplayName: "Premium - Male",
		Tier: "premium", Gender: "male",
		CostPerChar: 0.00003, HourlyEstimate: "$1.00/hour", SupportsRate: false,
	},
}

// Preset resolves a preset key, falling back to the default voice for
// unknown keys.
func Preset(key string) VoicePreset {
	if p, ok := VoicePresets[key]; ok {
		return p
	}
	return VoicePresets[DefaultVoice]
}

// Config holds runtime configuration for the interview service.
type Config struct {
	// API keys
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GoogleAPIKey    string `yaml:"google_api_key"`

	// HTTP
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	RequireAuth bool   `yaml:"require_auth"`

	// Conversational model
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	// Context management
	MaxContextMessages int `yaml:"max_context_messages"`
	ExtractionInterval int `yaml:"extraction_interval"`

	// Speech synthesis
	TTSLanguageCode   string  `yaml:"tts_language_code"`
	DefaultVoice      string  `yaml:"default_voice"`
	DefaultSpeechRate float64 `yaml:"default_speech_rate"`

	// Paths
	DataDir       string `yaml:"data_dir"`
	DBPath        string `yaml:"db_path"`
	AudioCacheDir string `yaml:"audio_cache_dir"`
	ExportsDir    string `yaml:"exports_dir"`
	TokensFile    string `yaml:"tokens_file"`

	// Storage
	MaxConns int `yaml:"max_conns"`
}

// Default returns the default configuration.
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		Host:               "0.0.0.0",
		Port:               DefaultPort,
		RequireAuth:        true,
		Model:              DefaultModel,
		MaxTokens:          DefaultMaxTokens,
		MaxContextMessages: DefaultMaxContextMessages,
		ExtractionInterval: DefaultExtractionInterval,
		TTSLanguageCode:    "en-US",
		DefaultVoice:       DefaultVoice,
		DefaultSpeechRate:  DefaultSpeechRate,
		DataDir:            dataDir,
		DBPath:             filepath.Join(dataDir, "interviews.db"),
		AudioCacheDir:      filepath.Join(dataDir, "audio_cache"),
		ExportsDir:         filepath.Join(dataDir, "exports"),
		TokensFile:         filepath.Join(dataDir, "tokens.json"),
		MaxConns:           DefaultMaxConns,
	}
}

// DataDir returns the base data directory (~/.mars-history).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mars-history"
	}
	return filepath.Join(home, ".mars-history")
}

// SettingsPath returns the YAML settings file path inside the data dir.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// Load reads settings.yaml (if present) over the defaults, then applies
// environment-variable overrides.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides config fields from the environment.
func (c *Config) applyEnv() {
	envString(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envString(&c.GoogleAPIKey, "GOOGLE_API_KEY")
	envString(&c.Host, "HOST")
	envInt(&c.Port, "PORT")
	envBool(&c.RequireAuth, "REQUIRE_AUTH")
	envString(&c.Model, "CLAUDE_MODEL")
	envInt(&c.MaxTokens, "CLAUDE_MAX_TOKENS")
	envInt(&c.MaxContextMessages, "MAX_CONTEXT_MESSAGES")
	envInt(&c.ExtractionInterval, "EXTRACTION_INTERVAL")
	envString(&c.TTSLanguageCode, "TTS_LANGUAGE_CODE")
	envString(&c.DefaultVoice, "DEFAULT_VOICE")
	envFloat(&c.DefaultSpeechRate, "DEFAULT_SPEECH_RATE")
	envString(&c.DBPath, "DATABASE_PATH")
	envString(&c.AudioCacheDir, "AUDIO_CACHE_DIR")
	envString(&c.ExportsDir, "EXPORTS_DIR")
	envString(&c.TokensFile, "TOKENS_FILE")
}

// Validate reports missing required settings.
func (c *Config) Validate() []string {
	var errs []string
	if c.AnthropicAPIKey == "" {
		errs = append(errs, "ANTHROPIC_API_KEY is required")
	}
	if c.GoogleAPIKey == "" {
		errs = append(errs, "GOOGLE_API_KEY is required")
	}
	return errs
}

// EnsureDirectories creates the data, audio cache and exports directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.AudioCacheDir, c.ExportsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
