package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/llamavoice/internal/errors"
	"github.com/diogo/llamavoice/internal/voice"
)

// DeepgramListenURL is the live transcription endpoint.
const DeepgramListenURL = "wss://api.deepgram.com/v1/listen"

const (
	audioChunkSize   = 3200 // 100ms of 16 kHz 16-bit mono
	defaultNoSpeech  = 8 * time.Second
	closeStreamFrame = `{"type":"CloseStream"}`
)

// AudioSource opens a raw PCM capture stream.
type AudioSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// DeepgramLive is a recognizer that streams microphone audio to Deepgram
// over a websocket and reports interim and final transcripts.
type DeepgramLive struct {
	apiKey   string
	endpoint string
	source   AudioSource
	dialer   *websocket.Dialer
	noSpeech time.Duration
}

// DeepgramOption configures DeepgramLive
type DeepgramOption func(*DeepgramLive)

// WithDeepgramEndpoint overrides the websocket URL.
func WithDeepgramEndpoint(endpoint string) DeepgramOption {
	return func(d *DeepgramLive) {
		d.endpoint = endpoint
	}
}

// WithNoSpeechTimeout sets how long to wait for any transcript before the
// session ends with a no-speech error.
func WithNoSpeechTimeout(timeout time.Duration) DeepgramOption {
	return func(d *DeepgramLive) {
		d.noSpeech = timeout
	}
}

// NewDeepgramLive creates a DeepgramLive recognizer reading audio from source.
func NewDeepgramLive(apiKey string, source AudioSource, opts ...DeepgramOption) *DeepgramLive {
	d := &DeepgramLive{
		apiKey:   apiKey,
		endpoint: DeepgramListenURL,
		source:   source,
		dialer:   websocket.DefaultDialer,
		noSpeech: defaultNoSpeech,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ListenURL builds the websocket URL for cfg.
func (d *DeepgramLive) ListenURL(cfg voice.RecognitionConfig) string {
	q := url.Values{}
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(SampleRate))
	q.Set("channels", "1")
	q.Set("language", cfg.Locale)
	q.Set("interim_results", strconv.FormatBool(cfg.InterimResults))
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("endpointing", "300")
	q.Set("utterance_end_ms", "1000")
	return d.endpoint + "?" + q.Encode()
}

// Start opens a live session. Connection failures are reported as a
// network error event rather than returned.
func (d *DeepgramLive) Start(ctx context.Context, cfg voice.RecognitionConfig) (voice.Recognition, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &deepgramSession{
		events: make(chan voice.Event, 32),
		cancel: cancel,
	}
	go s.run(ctx, d, cfg)
	return s, nil
}

type deepgramSession struct {
	events  chan voice.Event
	cancel  context.CancelFunc
	stopped atomic.Bool
}

func (s *deepgramSession) Events() <-chan voice.Event { return s.events }

func (s *deepgramSession) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return apierrors.ErrAlreadyStopped
	}
	s.cancel()
	return nil
}

// deepgramResult is one "Results" message.
type deepgramResult struct {
	Transcript  string
	Confidence  float64
	IsFinal     bool
	SpeechFinal bool
}

// parseDeepgramMessage decodes a live transcription message. ok is false
// for messages that carry no transcript.
func parseDeepgramMessage(data []byte) (res deepgramResult, kind string, ok bool) {
	kind = gjson.GetBytes(data, "type").String()
	if kind != "Results" {
		return res, kind, false
	}
	alt := gjson.GetBytes(data, "channel.alternatives.0")
	res = deepgramResult{
		Transcript:  alt.Get("transcript").String(),
		Confidence:  alt.Get("confidence").Float(),
		IsFinal:     gjson.GetBytes(data, "is_final").Bool(),
		SpeechFinal: gjson.GetBytes(data, "speech_final").Bool(),
	}
	return res, kind, true
}

func (s *deepgramSession) emit(ev voice.Event) {
	s.events <- ev
}

func (s *deepgramSession) run(ctx context.Context, d *DeepgramLive, cfg voice.RecognitionConfig) {
	defer close(s.events)
	defer s.emit(voice.EndEvent())
	defer s.cancel()

	audio, err := d.source.Open(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to open audio source")
		s.emit(voice.ErrorEvent(apierrors.CodeAudioCapture, err.Error()))
		return
	}
	defer audio.Close()

	header := http.Header{}
	header.Set("Authorization", "Token "+d.apiKey)
	conn, _, err := d.dialer.DialContext(ctx, d.ListenURL(cfg), header)
	if err != nil {
		if ctx.Err() != nil {
			s.emit(voice.ErrorEvent(apierrors.CodeAborted, "stopped before connecting"))
			return
		}
		s.emit(voice.ErrorEvent(apierrors.CodeNetwork, err.Error()))
		return
	}
	defer conn.Close()

	s.emit(voice.StartEvent())

	go pumpAudio(ctx, conn, audio)

	messages := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case messages <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	noSpeech := time.NewTimer(d.noSpeech)
	defer noSpeech.Stop()

	var finals []string
	var confidence float64
	heard := false

	flush := func() bool {
		text := strings.TrimSpace(strings.Join(finals, " "))
		if text == "" {
			return false
		}
		s.emit(voice.ResultEvent(text, confidence, true))
		finals = nil
		return !cfg.Continuous
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-noSpeech.C:
			if !heard {
				s.emit(voice.ErrorEvent(apierrors.CodeNoSpeech, "no speech detected"))
				return
			}
		case err := <-readErr:
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				flush()
				return
			}
			s.emit(voice.ErrorEvent(apierrors.CodeNetwork, err.Error()))
			return
		case data := <-messages:
			res, kind, ok := parseDeepgramMessage(data)
			if !ok {
				if kind == "UtteranceEnd" && flush() {
					return
				}
				continue
			}
			if strings.TrimSpace(res.Transcript) != "" {
				heard = true
			}
			if res.IsFinal {
				if res.Transcript != "" {
					finals = append(finals, res.Transcript)
					confidence = res.Confidence
				}
				if res.SpeechFinal && flush() {
					return
				}
				continue
			}
			if cfg.InterimResults && res.Transcript != "" {
				partial := strings.TrimSpace(strings.Join(append(append([]string{}, finals...), res.Transcript), " "))
				s.emit(voice.ResultEvent(partial, res.Confidence, false))
			}
		}
	}
}

// pumpAudio forwards capture audio to the socket and asks Deepgram to
// finish when capture ends or the session is stopped.
func pumpAudio(ctx context.Context, conn *websocket.Conn, audio io.Reader) {
	buf := make([]byte, audioChunkSize)
	for {
		if ctx.Err() != nil {
			break
		}
		n, err := audio.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Msg("audio capture ended")
			}
			break
		}
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(closeStreamFrame))
}
