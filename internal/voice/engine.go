// Package voice drives speech recognition and synthesis engines for the chat
// UI. Engines are pluggable; the Adapter owns the listening and speaking
// state machines and guarantees at most one live recognition session and
// one in-flight utterance.
package voice

import (
	"context"

	apierrors "github.com/diogo/llamavoice/internal/errors"
	"github.com/diogo/llamavoice/internal/models"
)

// EventKind identifies a recognition event.
type EventKind int

const (
	EventStart EventKind = iota
	EventResult
	EventError
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	}
	return "unknown"
}

// Event is emitted by a running Recognition.
type Event struct {
	Kind       EventKind
	Transcript string
	Confidence float64
	IsFinal    bool
	Err        *apierrors.EngineError
}

// StartEvent, ResultEvent, ErrorEvent and EndEvent build events.
func StartEvent() Event { return Event{Kind: EventStart} }

func ResultEvent(transcript string, confidence float64, final bool) Event {
	return Event{Kind: EventResult, Transcript: transcript, Confidence: confidence, IsFinal: final}
}

func ErrorEvent(code, message string) Event {
	return Event{Kind: EventError, Err: apierrors.NewEngineError(code, message)}
}

func EndEvent() Event { return Event{Kind: EventEnd} }

// RecognitionConfig configures a recognition session.
type RecognitionConfig struct {
	Continuous     bool
	InterimResults bool
	Locale         string
}

// DefaultRecognitionConfig is a single-utterance session with interim results.
func DefaultRecognitionConfig(locale string) RecognitionConfig {
	if locale == "" {
		locale = models.DefaultLocale
	}
	return RecognitionConfig{Continuous: false, InterimResults: true, Locale: locale}
}

// Recognition is a live recognition session. Events is closed after the
// session ends. Stop may return errors.ErrAlreadyStopped.
type Recognition interface {
	Events() <-chan Event
	Stop() error
}

// RecognizerEngine starts recognition sessions.
type RecognizerEngine interface {
	Start(ctx context.Context, cfg RecognitionConfig) (Recognition, error)
}

// Utterance is one piece of text to speak.
type Utterance struct {
	Text   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// SynthesizerEngine speaks an utterance, blocking until playback finishes or
// ctx is cancelled.
type SynthesizerEngine interface {
	Speak(ctx context.Context, u Utterance) error
}

// MicrophoneAccess asks for access to the capture device.
type MicrophoneAccess interface {
	Request(ctx context.Context) error
}

// Notifier surfaces messages to the user. Alert blocks until the user has
// seen the message; Log is silent.
type Notifier interface {
	Alert(msg string)
	Log(msg string)
}
