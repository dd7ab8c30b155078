package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServerURL != "http://localhost:3000" {
		t.Errorf("Expected default server URL, got '%s'", cfg.ServerURL)
	}
	if cfg.Endpoint != "/api/chat" {
		t.Errorf("Expected endpoint '/api/chat', got '%s'", cfg.Endpoint)
	}
	if !cfg.AutoSpeak {
		t.Error("Expected AutoSpeak to be true")
	}
	if cfg.Voice.Locale != "en-US" {
		t.Errorf("Expected locale en-US, got %s", cfg.Voice.Locale)
	}
	if cfg.Voice.Rate != 0.9 || cfg.Voice.Pitch != 1 || cfg.Voice.Volume != 1 {
		t.Errorf("Unexpected voice params: %+v", cfg.Voice)
	}
	if cfg.Backend.Provider != "ollama" {
		t.Errorf("Expected ollama provider, got %s", cfg.Backend.Provider)
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("GetConfigDir() returned relative path: %s", dir)
	}
	if filepath.Base(dir) != ".llamavoice" {
		t.Errorf("GetConfigDir() = %s", dir)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvServerURL, "")

	cfg := DefaultConfig()
	cfg.ServerURL = "http://example.test:8080"
	cfg.Voice.Recognizer = "whisper"
	cfg.Verbose = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	path, _ := GetConfigPath()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config perms = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.ServerURL != cfg.ServerURL || loaded.Voice.Recognizer != "whisper" || !loaded.Verbose {
		t.Errorf("LoadConfig() = %+v", loaded)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != DefaultConfig().ServerURL {
		t.Error("Expected defaults for missing file")
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err == nil {
		t.Error("Expected parse error")
	}
	if cfg.Endpoint != "/api/chat" {
		t.Error("Expected defaults on parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvServerURL, "http://env.test")
	t.Setenv(EnvModel, "mistral")
	t.Setenv(EnvOllamaHost, "http://ollama.test:11434")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)

	if cfg.ServerURL != "http://env.test" {
		t.Errorf("ServerURL = %s", cfg.ServerURL)
	}
	if cfg.Backend.Model != "mistral" {
		t.Errorf("Model = %s", cfg.Backend.Model)
	}
	if cfg.Backend.OllamaURL != "http://ollama.test:11434" {
		t.Errorf("OllamaURL = %s", cfg.Backend.OllamaURL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("DEEPGRAM_API_KEY=dg-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDeepgram, "")
	os.Unsetenv(EnvDeepgram)

	LoadDotEnv(envFile, filepath.Join(dir, "missing.env"))

	if got := LoadKeys().Deepgram; got != "dg-test" {
		t.Errorf("Deepgram key = %q, want dg-test", got)
	}
}

func TestNextOption(t *testing.T) {
	tests := []struct {
		current  string
		expected string
	}{
		{"deepgram", "whisper"},
		{"whisper", "none"},
		{"none", "deepgram"},
		{"unknown", "deepgram"},
	}

	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			if got := NextOption(AvailableRecognizers(), tt.current); got != tt.expected {
				t.Errorf("NextOption(%s) = %s, want %s", tt.current, got, tt.expected)
			}
		})
	}
}

func TestGetTranscriptDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	cfg := DefaultConfig()
	cfg.TranscriptDir = dir

	got, err := GetTranscriptDir(cfg)
	if err != nil {
		t.Fatalf("GetTranscriptDir() error: %v", err)
	}
	if got != dir {
		t.Errorf("GetTranscriptDir() = %s, want %s", got, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("transcript dir not created: %v", err)
	}
}
