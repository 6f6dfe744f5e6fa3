// Package config provides configuration management for the interview service.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir     string
	origHomeDir string
}

func (s *ConfigSuite) SetupTest() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "config-test-*")
	s.Require().NoError(err)

	// Save and override HOME
	s.origHomeDir = os.Getenv("HOME")
	os.Setenv("HOME", s.tempDir)
}

func (s *ConfigSuite) TearDownTest() {
	os.Setenv("HOME", s.origHomeDir)
	os.RemoveAll(s.tempDir)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

// TestDefault tests default configuration values.
func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultPort, cfg.Port)
	s.Equal(DefaultModel, cfg.Model)
	s.Equal(DefaultMaxTokens, cfg.MaxTokens)
	s.Equal(DefaultMaxContextMessages, cfg.MaxContextMessages)
	s.Equal(DefaultExtractionInterval, cfg.ExtractionInterval)
	s.Equal(DefaultVoice, cfg.DefaultVoice)
	s.Equal(DefaultSpeechRate, cfg.DefaultSpeechRate)
	s.Equal(4, cfg.MaxConns)
	s.True(cfg.RequireAuth)
}

// TestDataDir tests data directory path.
func (s *ConfigSuite) TestDataDir() {
	dir := DataDir()
	s.Contains(dir, ".mars-history")
}

// TestLoadMissingSettings tests loading with no settings file present.
func (s *ConfigSuite) TestLoadMissingSettings() {
	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(DefaultModel, cfg.Model)
}

// TestLoadSettingsFile tests YAML settings override defaults.
func (s *ConfigSuite) TestLoadSettingsFile() {
	s.Require().NoError(os.MkdirAll(DataDir(), 0o755))
	settings := "model: claude-test\nextraction_interval: 5\n"
	s.Require().NoError(os.WriteFile(SettingsPath(), []byte(settings), 0o644))

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal("claude-test", cfg.Model)
	s.Equal(5, cfg.ExtractionInterval)
	// Untouched fields keep defaults
	s.Equal(DefaultMaxContextMessages, cfg.MaxContextMessages)
}

// TestEnvOverrides tests environment variables take precedence.
func (s *ConfigSuite) TestEnvOverrides() {
	os.Setenv("MAX_CONTEXT_MESSAGES", "12")
	os.Setenv("REQUIRE_AUTH", "false")
	os.Setenv("DEFAULT_SPEECH_RATE", "1.2")
	defer func() {
		os.Unsetenv("MAX_CONTEXT_MESSAGES")
		os.Unsetenv("REQUIRE_AUTH")
		os.Unsetenv("DEFAULT_SPEECH_RATE")
	}()

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(12, cfg.MaxContextMessages)
	s.False(cfg.RequireAuth)
	s.Equal(1.2, cfg.DefaultSpeechRate)
}

// TestPreset tests voice preset lookup with fallback.
func (s *ConfigSuite) TestPreset() {
	p := Preset("budget_male")
	s.Equal("en-US-Wavenet-D", p.Name)
	s.True(p.SupportsRate)

	// Unknown keys fall back to the default voice
	p = Preset("does-not-exist")
	s.Equal(VoicePresets[DefaultVoice].Name, p.Name)
	s.False(p.SupportsRate)
}

// TestEnsureDirectories tests directory creation.
func (s *ConfigSuite) TestEnsureDirectories() {
	cfg := Default()
	cfg.DataDir = filepath.Join(s.tempDir, "data")
	cfg.AudioCacheDir = filepath.Join(cfg.DataDir, "audio_cache")
	cfg.ExportsDir = filepath.Join(cfg.DataDir, "exports")

	s.Require().NoError(cfg.EnsureDirectories())
	s.DirExists(cfg.AudioCacheDir)
	s.DirExists(cfg.ExportsDir)
}
