package speech

import (
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/voice"
)

// Engines is the result of capability detection. Recognizer is nil when no
// recognition engine can run on this machine.
type Engines struct {
	Recognizer  voice.RecognizerEngine
	Synthesizer voice.SynthesizerEngine
	Microphone  voice.MicrophoneAccess

	RecognizerName  string
	SynthesizerName string
}

// Detect builds the configured engines, dropping any whose binaries or API
// keys are missing.
func Detect(cfg config.VoiceConfig, keys config.Keys) Engines {
	var e Engines

	recorder := NewRecorder(cfg.Recorder)
	player := NewPlayer(cfg.Player)

	var oa *openai.Client
	if keys.OpenAI != "" {
		oa = openai.NewClient(keys.OpenAI)
	}

	switch cfg.Recognizer {
	case "deepgram":
		switch {
		case keys.Deepgram == "":
			log.Warn().Msg("DEEPGRAM_API_KEY not set, speech recognition disabled")
		case !recorder.Available():
			log.Warn().Str("recorder", recorder.Command).Msg("recorder not found, speech recognition disabled")
		default:
			e.Recognizer = NewDeepgramLive(keys.Deepgram, recorder)
			e.RecognizerName = "deepgram"
		}
	case "whisper":
		switch {
		case oa == nil:
			log.Warn().Msg("OPENAI_API_KEY not set, speech recognition disabled")
		case !recorder.Available():
			log.Warn().Str("recorder", recorder.Command).Msg("recorder not found, speech recognition disabled")
		default:
			e.Recognizer = NewWhisper(oa, recorder, cfg.MaxRecordSeconds)
			e.RecognizerName = "whisper"
		}
	}
	if e.Recognizer != nil {
		e.Microphone = NewDeviceProbe(recorder)
	}

	switch cfg.Synthesizer {
	case "system":
		if v := DetectCommandVoice(cfg.Locale); v != nil {
			e.Synthesizer = v
			e.SynthesizerName = v.Command
		}
	case "openai":
		if oa != nil && player.Available() {
			e.Synthesizer = NewOpenAIVoice(oa, player, cfg.OpenAIVoice)
			e.SynthesizerName = "openai"
		}
	case "elevenlabs":
		if keys.ElevenLabs != "" && player.Available() {
			e.Synthesizer = NewElevenLabsVoice(keys.ElevenLabs, cfg.VoiceID, player)
			e.SynthesizerName = "elevenlabs"
		}
	}
	if e.Synthesizer == nil && cfg.Synthesizer != "none" {
		log.Warn().Str("synthesizer", cfg.Synthesizer).Msg("speech synthesis unavailable")
	}

	return e
}
