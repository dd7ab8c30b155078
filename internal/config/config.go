// Package config handles configuration and local storage for llamavoice.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diogo/llamavoice/internal/models"
)

// appDirName is the directory under $HOME holding config, storage and logs.
const appDirName = ".llamavoice"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	EnableEmoji      bool `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool `json:"inline_table_links"` // Render links inline in tables
}

// VoiceConfig selects and tunes the speech engines.
type VoiceConfig struct {
	// Recognizer is one of "deepgram", "whisper" or "none".
	Recognizer string `json:"recognizer"`
	// Synthesizer is one of "system", "openai", "elevenlabs" or "none".
	Synthesizer string  `json:"synthesizer"`
	Locale      string  `json:"locale"`
	Rate        float64 `json:"rate"`
	Pitch       float64 `json:"pitch"`
	Volume      float64 `json:"volume"`
	// Recorder is the capture command: "rec" (sox) or "arecord".
	Recorder string `json:"recorder"`
	// Player plays synthesized audio files: "ffplay", "mpg123" or "afplay".
	Player      string `json:"player"`
	VoiceID     string `json:"voice_id,omitempty"`     // ElevenLabs voice
	OpenAIVoice string `json:"openai_voice,omitempty"` // OpenAI TTS voice
	// MaxRecordSeconds bounds a single batch recording.
	MaxRecordSeconds int `json:"max_record_seconds"`
}

// BackendConfig configures the `serve` chat backend.
type BackendConfig struct {
	Addr           string   `json:"addr"`
	Provider       string   `json:"provider"` // "ollama" or "openai"
	Model          string   `json:"model"`
	OllamaURL      string   `json:"ollama_url"`
	Persona        string   `json:"persona,omitempty"`
	AllowedOrigins []string `json:"allowed_origins"`
	// RateLimit is the number of chat requests allowed per IP per minute.
	RateLimit int `json:"rate_limit"`
}

// Config represents the user configuration
type Config struct {
	ServerURL string `json:"server_url"`
	Endpoint  string `json:"endpoint"`
	// AutoSpeak speaks every completed reply.
	AutoSpeak bool `json:"auto_speak"`
	// Verbose enables debug logging.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TranscriptDir   string         `json:"transcript_dir,omitempty"`
	Voice           VoiceConfig    `json:"voice"`
	Backend         BackendConfig  `json:"backend"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultVoiceConfig returns the default speech engine configuration
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Recognizer:       "deepgram",
		Synthesizer:      "system",
		Locale:           models.DefaultLocale,
		Rate:             models.DefaultRate,
		Pitch:            models.DefaultPitch,
		Volume:           models.DefaultVolume,
		Recorder:         "rec",
		Player:           "ffplay",
		VoiceID:          "EXAVITQu4vr4xnSDxMaL",
		OpenAIVoice:      "alloy",
		MaxRecordSeconds: 15,
	}
}

// DefaultBackendConfig returns the default backend configuration
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{
		Addr:           ":3000",
		Provider:       "ollama",
		Model:          "llama3.2",
		OllamaURL:      "http://localhost:11434",
		Persona:        "assistant",
		AllowedOrigins: []string{"*"},
		RateLimit:      60,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		ServerURL:       models.DefaultServerURL,
		Endpoint:        models.DefaultEndpoint,
		AutoSpeak:       true,
		Verbose:         false,
		CopyToClipboard: false,
		TranscriptDir:   filepath.Join(homeDir, appDirName, "transcripts"),
		Voice:           DefaultVoiceConfig(),
		Backend:         DefaultBackendConfig(),
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, appDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path of the TUI log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "llamavoice.log"), nil
}

// GetTranscriptDir returns the transcript directory from config, creating it if necessary
func GetTranscriptDir(cfg Config) (string, error) {
	dir := cfg.TranscriptDir
	if dir == "" {
		configDir, err := GetConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(configDir, "transcripts")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	return dir, nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	cfg, err = LoadConfigFile(configPath)
	ApplyEnv(&cfg)
	return cfg, err
}

// LoadConfigFile reads a config file. A missing file yields the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	return SaveConfigFile(filepath.Join(configDir, "config.json"), cfg)
}

// SaveConfigFile writes cfg as indented JSON to path
func SaveConfigFile(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AvailableRecognizers returns the recognizer engine names
func AvailableRecognizers() []string {
	return []string{"deepgram", "whisper", "none"}
}

// AvailableSynthesizers returns the synthesizer engine names
func AvailableSynthesizers() []string {
	return []string{"system", "openai", "elevenlabs", "none"}
}

// AvailableProviders returns the backend provider names
func AvailableProviders() []string {
	return []string{"ollama", "openai"}
}

// NextOption returns the option after current in opts, wrapping around.
func NextOption(opts []string, current string) string {
	for i, o := range opts {
		if o == current {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}
