package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/diogo/llamavoice/internal/voice"
)

// ElevenLabsBaseURL is the ElevenLabs API origin.
const ElevenLabsBaseURL = "https://api.elevenlabs.io"

// playTempAudio writes audio to a temp mp3 file and plays it.
func playTempAudio(ctx context.Context, player AudioPlayer, audio io.Reader, volume float64) error {
	f, err := os.CreateTemp("", "llamavoice-tts-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	return player.Play(ctx, f.Name(), volume)
}

// SpeechCreator is the subset of the OpenAI client used for TTS.
type SpeechCreator interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAIVoice synthesizes with OpenAI TTS and plays the result.
type OpenAIVoice struct {
	client SpeechCreator
	player AudioPlayer
	voice  string
}

// NewOpenAIVoice creates an OpenAIVoice using the named voice (e.g. "alloy").
func NewOpenAIVoice(client SpeechCreator, player AudioPlayer, voiceName string) *OpenAIVoice {
	if voiceName == "" {
		voiceName = string(openai.VoiceAlloy)
	}
	return &OpenAIVoice{client: client, player: player, voice: voiceName}
}

func (v *OpenAIVoice) Speak(ctx context.Context, u voice.Utterance) error {
	resp, err := v.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          u.Text,
		Voice:          openai.SpeechVoice(v.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          u.Rate,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	return playTempAudio(ctx, v.player, resp, u.Volume)
}

// ElevenLabsVoice synthesizes with the ElevenLabs REST API.
type ElevenLabsVoice struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
	player     AudioPlayer
}

// NewElevenLabsVoice creates an ElevenLabsVoice.
func NewElevenLabsVoice(apiKey, voiceID string, player AudioPlayer) *ElevenLabsVoice {
	return &ElevenLabsVoice{
		apiKey:     apiKey,
		voiceID:    voiceID,
		baseURL:    ElevenLabsBaseURL,
		httpClient: &http.Client{},
		player:     player,
	}
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id,omitempty"`
	VoiceSettings *elevenLabsVoiceSetting `json:"voice_settings,omitempty"`
}

type elevenLabsVoiceSetting struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

func (v *ElevenLabsVoice) Speak(ctx context.Context, u voice.Utterance) error {
	payload, err := json.Marshal(elevenLabsRequest{
		Text:    u.Text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: &elevenLabsVoiceSetting{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           u.Rate,
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", v.baseURL, v.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", v.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("tts failed [%d]: %s", resp.StatusCode, b)
	}

	return playTempAudio(ctx, v.player, resp.Body, u.Volume)
}
