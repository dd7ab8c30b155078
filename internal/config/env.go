package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Environment variables read by llamavoice.
const (
	EnvServerURL  = "LLAMAVOICE_SERVER_URL"
	EnvModel      = "LLAMAVOICE_MODEL"
	EnvOllamaHost = "OLLAMA_HOST"
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvDeepgram   = "DEEPGRAM_API_KEY"
	EnvElevenLabs = "ELEVENLABS_API_KEY"
)

// LoadDotEnv loads .env files into the process environment. Variables already
// set are left alone. A missing file is not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Warn().Err(err).Str("file", f).Msg("failed to load env file")
		}
	}
}

// ApplyEnv overrides config fields from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv(EnvOllamaHost); v != "" {
		cfg.Backend.OllamaURL = v
	}
}

// Keys holds the API keys of the hosted speech and chat services.
type Keys struct {
	OpenAI     string
	Deepgram   string
	ElevenLabs string
}

// LoadKeys reads API keys from the environment.
func LoadKeys() Keys {
	return Keys{
		OpenAI:     os.Getenv(EnvOpenAIKey),
		Deepgram:   os.Getenv(EnvDeepgram),
		ElevenLabs: os.Getenv(EnvElevenLabs),
	}
}
