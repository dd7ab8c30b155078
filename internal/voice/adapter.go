package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	apierrors "github.com/diogo/llamavoice/internal/errors"
	"github.com/diogo/llamavoice/internal/models"
)

// acceptConfidence is the confidence above which a final result is accepted
// even when its transcript is blank.
const acceptConfidence = 0.5

// User-facing alert texts.
const (
	MsgUnsupported      = "Speech recognition is not supported. Configure a recognizer (deepgram or whisper) to use voice input."
	MsgMicrophoneNeeded = "Microphone access is required for voice input. Please allow microphone access and try again."
	MsgAudioCapture     = "Microphone access denied. Please allow microphone access and try again."
	MsgNotAllowed       = "Microphone permission denied. Please allow microphone access to use voice input."
	MsgNetwork          = "Network error. Please check your internet connection and try again."
)

// alertText maps actionable engine error codes to alert messages.
var alertText = map[string]string{
	apierrors.CodeAudioCapture: MsgAudioCapture,
	apierrors.CodeNotAllowed:   MsgNotAllowed,
	apierrors.CodeNetwork:      MsgNetwork,
}

// Adapter owns the listening and speaking state. Listening and speaking are
// independent flags, but starting to listen always stops speech first.
type Adapter struct {
	recognizer   RecognizerEngine
	synthesizer  SynthesizerEngine
	mic          MicrophoneAccess
	notifier     Notifier
	onTranscript func(string)

	locale string
	rate   float64
	pitch  float64
	volume float64

	recognition Slot
	synthesis   Slot

	mu        sync.Mutex
	listening bool
	speaking  bool
	onState   func(listening, speaking bool)
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithLocale sets the recognition locale.
func WithLocale(locale string) AdapterOption {
	return func(a *Adapter) {
		if locale != "" {
			a.locale = locale
		}
	}
}

// WithVoiceParams sets synthesis rate, pitch and volume.
func WithVoiceParams(rate, pitch, volume float64) AdapterOption {
	return func(a *Adapter) {
		a.rate, a.pitch, a.volume = rate, pitch, volume
	}
}

// WithStateHandler registers a callback for listening/speaking changes.
func WithStateHandler(fn func(listening, speaking bool)) AdapterOption {
	return func(a *Adapter) {
		a.onState = fn
	}
}

// NewAdapter creates an Adapter. A nil recognizer means speech recognition
// is unavailable; a nil synthesizer makes Speak a no-op. onTranscript
// receives every accepted final transcript.
func NewAdapter(recognizer RecognizerEngine, synthesizer SynthesizerEngine, mic MicrophoneAccess, notifier Notifier, onTranscript func(string), opts ...AdapterOption) *Adapter {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	a := &Adapter{
		recognizer:   recognizer,
		synthesizer:  synthesizer,
		mic:          mic,
		notifier:     notifier,
		onTranscript: onTranscript,
		locale:       models.DefaultLocale,
		rate:         models.DefaultRate,
		pitch:        models.DefaultPitch,
		volume:       models.DefaultVolume,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// SetStateHandler replaces the state callback.
func (a *Adapter) SetStateHandler(fn func(listening, speaking bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onState = fn
}

// Listening reports whether a recognition session has started and not ended.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// Speaking reports whether an utterance is playing.
func (a *Adapter) Speaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaking
}

// CanListen reports whether a recognizer is configured.
func (a *Adapter) CanListen() bool {
	return a.recognizer != nil
}

func (a *Adapter) alert(msg string) {
	a.mu.Lock()
	n := a.notifier
	a.mu.Unlock()
	n.Alert(msg)
}

func (a *Adapter) logf(msg string) {
	a.mu.Lock()
	n := a.notifier
	a.mu.Unlock()
	n.Log(msg)
}

func (a *Adapter) setState(listening, speaking *bool) {
	a.mu.Lock()
	changed := false
	if listening != nil && a.listening != *listening {
		a.listening = *listening
		changed = true
	}
	if speaking != nil && a.speaking != *speaking {
		a.speaking = *speaking
		changed = true
	}
	l, s, fn := a.listening, a.speaking, a.onState
	a.mu.Unlock()

	if changed && fn != nil {
		fn(l, s)
	}
}

func (a *Adapter) setListening(v bool) { a.setState(&v, nil) }
func (a *Adapter) setSpeaking(v bool)  { a.setState(nil, &v) }

// StartListening begins a single-utterance recognition session. Any prior
// session is torn down and speech output is stopped first. Capability and
// permission failures are alerted and returned; the adapter stays idle.
func (a *Adapter) StartListening(ctx context.Context) error {
	if a.recognition.Clear() {
		a.logf("stopped previous recognition session")
	}
	a.StopSpeaking()

	if a.recognizer == nil {
		err := apierrors.NewCapabilityError("speech recognition", MsgUnsupported)
		log.Error().Err(err).Msg("speech recognition unavailable")
		a.alert(MsgUnsupported)
		return err
	}

	if a.mic != nil {
		if err := a.mic.Request(ctx); err != nil {
			perr := apierrors.NewPermissionError(MsgMicrophoneNeeded, err)
			log.Error().Err(err).Msg("microphone access denied")
			a.alert(MsgMicrophoneNeeded)
			a.setListening(false)
			return perr
		}
	}

	var session Recognition
	token, err := a.recognition.Replace(func() (func(), error) {
		sessionCtx, cancel := context.WithCancel(ctx)
		rec, err := a.recognizer.Start(sessionCtx, DefaultRecognitionConfig(a.locale))
		if err != nil {
			cancel()
			return nil, err
		}
		session = rec
		return func() {
			if err := rec.Stop(); err != nil && !errors.Is(err, apierrors.ErrAlreadyStopped) {
				log.Debug().Err(err).Msg("recognition stop")
			}
			cancel()
		}, nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to start speech recognition")
		a.setListening(false)
		var engErr *apierrors.EngineError
		if errors.As(err, &engErr) {
			a.handleEngineError(engErr)
		}
		return err
	}

	go a.consume(token, session)
	return nil
}

// consume processes one session's events until its channel closes.
func (a *Adapter) consume(token uint64, session Recognition) {
	defer a.endSession(token)

	for ev := range session.Events() {
		switch ev.Kind {
		case EventStart:
			if a.recognition.Holds(token) {
				log.Debug().Msg("speech recognition started")
				a.setListening(true)
			}
		case EventResult:
			if a.recognition.Holds(token) {
				a.handleResult(ev)
			}
		case EventError:
			if !a.recognition.Holds(token) {
				continue
			}
			a.endSession(token)
			if ev.Err != nil {
				a.handleEngineError(ev.Err)
			}
		case EventEnd:
			log.Debug().Msg("speech recognition ended")
			a.endSession(token)
		}
	}
}

// endSession clears listening if token is still the live session.
func (a *Adapter) endSession(token uint64) {
	if a.recognition.Release(token) {
		a.setListening(false)
	}
}

// Accept reports whether a recognition result should be delivered: it must
// be final and either carry confidence above 0.5 or non-blank text.
func Accept(ev Event) bool {
	if !ev.IsFinal {
		return false
	}
	return ev.Confidence > acceptConfidence || strings.TrimSpace(ev.Transcript) != ""
}

func (a *Adapter) handleResult(ev Event) {
	if !Accept(ev) {
		return
	}
	transcript := strings.TrimSpace(ev.Transcript)
	log.Debug().Str("transcript", transcript).Float64("confidence", ev.Confidence).Msg("final transcript")

	a.mu.Lock()
	fn := a.onTranscript
	a.mu.Unlock()
	if fn != nil {
		fn(transcript)
	}
}

func (a *Adapter) handleEngineError(err *apierrors.EngineError) {
	log.Warn().Str("code", err.Code).Str("message", err.Message).Msg("speech recognition error")

	if msg, ok := alertText[err.Code]; ok && err.Actionable() {
		a.alert(msg)
		return
	}
	switch err.Code {
	case apierrors.CodeNoSpeech:
		a.logf("No speech detected. Please try again.")
	case apierrors.CodeAborted:
		a.logf("Speech recognition was aborted.")
	default:
		a.logf("Speech recognition error: " + err.Code)
	}
}

// StopListening stops the live session if any. It is safe to call at any
// time and always leaves listening false.
func (a *Adapter) StopListening() {
	if !a.recognition.Clear() {
		a.logf("recognition already stopped or not running")
	}
	a.setListening(false)
}

// Speak cancels any in-flight utterance and speaks text. The returned
// channel closes when this utterance finishes or is cancelled.
func (a *Adapter) Speak(text string) <-chan struct{} {
	done := make(chan struct{})
	if a.synthesizer == nil {
		close(done)
		return done
	}

	u := Utterance{Text: text, Rate: a.rate, Pitch: a.pitch, Volume: a.volume}
	finished := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	token, _ := a.synthesis.Replace(func() (func(), error) {
		return func() {
			cancel()
			<-finished
		}, nil
	})
	a.setSpeaking(true)

	go func() {
		defer close(done)

		err := a.synthesizer.Speak(ctx, u)
		close(finished)
		cancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("speech synthesis failed")
		}
		if a.synthesis.Release(token) {
			a.setSpeaking(false)
		}
	}()

	return done
}

// StopSpeaking cancels the in-flight utterance, if any. It is idempotent.
func (a *Adapter) StopSpeaking() {
	a.synthesis.Clear()
	a.setSpeaking(false)
}

// Close stops listening and speaking.
func (a *Adapter) Close() {
	a.StopListening()
	a.StopSpeaking()
}
