package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	apierrors "github.com/diogo/llamavoice/internal/errors"
	"github.com/diogo/llamavoice/internal/voice"
)

// Transcriber is the subset of the OpenAI client used for Whisper.
type Transcriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// FileRecorder records one utterance to a file.
type FileRecorder interface {
	RecordFile(ctx context.Context, path string, maxSeconds int) error
}

// Whisper is a batch recognizer: it records until silence, then sends the
// recording to OpenAI for transcription. It never emits interim results.
type Whisper struct {
	client     Transcriber
	recorder   FileRecorder
	maxSeconds int
	tempDir    string
}

// NewWhisper creates a Whisper recognizer.
func NewWhisper(client Transcriber, recorder FileRecorder, maxSeconds int) *Whisper {
	if maxSeconds <= 0 {
		maxSeconds = 15
	}
	return &Whisper{client: client, recorder: recorder, maxSeconds: maxSeconds}
}

// Start begins recording.
func (w *Whisper) Start(ctx context.Context, cfg voice.RecognitionConfig) (voice.Recognition, error) {
	dir, err := os.MkdirTemp(w.tempDir, "llamavoice-rec-")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &whisperSession{events: make(chan voice.Event, 4), cancel: cancel}
	go s.run(ctx, w, cfg, dir)
	return s, nil
}

type whisperSession struct {
	events  chan voice.Event
	cancel  context.CancelFunc
	stopped atomic.Bool
}

func (s *whisperSession) Events() <-chan voice.Event { return s.events }

func (s *whisperSession) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return apierrors.ErrAlreadyStopped
	}
	s.cancel()
	return nil
}

func (s *whisperSession) run(ctx context.Context, w *Whisper, cfg voice.RecognitionConfig, dir string) {
	defer close(s.events)
	defer func() { s.events <- voice.EndEvent() }()
	defer os.RemoveAll(dir)
	defer s.cancel()

	s.events <- voice.StartEvent()

	path := filepath.Join(dir, "utterance.wav")
	if err := w.recorder.RecordFile(ctx, path, w.maxSeconds); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.events <- voice.ErrorEvent(apierrors.CodeAudioCapture, err.Error())
		return
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
		Language: whisperLanguage(cfg.Locale),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("whisper transcription failed")
		s.events <- voice.ErrorEvent(apierrors.CodeNetwork, err.Error())
		return
	}

	if strings.TrimSpace(resp.Text) == "" {
		s.events <- voice.ErrorEvent(apierrors.CodeNoSpeech, "no speech detected")
		return
	}
	// Whisper reports no confidence; acceptance relies on the text.
	s.events <- voice.ResultEvent(resp.Text, 0, true)
}

// whisperLanguage converts a BCP 47 locale to the ISO-639-1 code Whisper wants.
func whisperLanguage(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}
