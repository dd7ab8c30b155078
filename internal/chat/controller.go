// Package chat implements the conversation controller: it sends user turns to
// the chat backend, accumulates the streamed reply and drives speech output.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/diogo/llamavoice/internal/api"
	"github.com/diogo/llamavoice/internal/models"
)

// readBufferSize is the size of each read from the reply stream.
const readBufferSize = 4096

// Speaker speaks text aloud. Speak returns a channel closed when the
// utterance ends or is cancelled, or nil when the engine cannot report
// completion.
type Speaker interface {
	Speak(text string) <-chan struct{}
	StopSpeaking()
}

// State is a snapshot of the controller for rendering.
type State struct {
	Messages  []models.Message
	Streaming bool
	Speaking  bool
}

// Controller owns the conversation and the streaming and speaking flags.
// It is safe for concurrent use.
type Controller struct {
	client  api.ChatClientInterface
	speaker Speaker

	perChar       time.Duration
	fallbackDelay time.Duration
	autoSpeak     bool
	clearInput    func()

	mu        sync.Mutex
	conv      *models.Conversation
	streaming bool
	speaking  bool
	speakGen  uint64
	observers []func(State)
}

// Option configures a Controller
type Option func(*Controller)

// WithSpeakingHeuristics sets the delays used to clear the speaking flag
// when the speaker cannot report completion.
func WithSpeakingHeuristics(perChar, fallback time.Duration) Option {
	return func(c *Controller) {
		c.perChar = perChar
		c.fallbackDelay = fallback
	}
}

// WithAutoSpeak controls whether completed replies are spoken.
func WithAutoSpeak(enabled bool) Option {
	return func(c *Controller) {
		c.autoSpeak = enabled
	}
}

// WithInputClearer registers the hook that clears the UI input buffer once
// a message is accepted.
func WithInputClearer(fn func()) Option {
	return func(c *Controller) {
		c.clearInput = fn
	}
}

// WithHistory seeds the conversation.
func WithHistory(msgs ...models.Message) Option {
	return func(c *Controller) {
		c.conv = models.NewConversation(msgs...)
	}
}

// NewController creates a Controller. speaker may be nil, in which case
// nothing is spoken and the speaking flag never turns on.
func NewController(client api.ChatClientInterface, speaker Speaker, opts ...Option) *Controller {
	c := &Controller{
		client:        client,
		speaker:       speaker,
		perChar:       models.SpeakingPerChar,
		fallbackDelay: models.SpeakingFallbackDelay,
		autoSpeak:     true,
		conv:          models.NewConversation(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Subscribe registers fn to receive a snapshot after every state change.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	return State{
		Messages:  c.conv.Messages(),
		Streaming: c.streaming,
		Speaking:  c.speaking,
	}
}

// notify must be called without c.mu held.
func (c *Controller) notify() {
	c.mu.Lock()
	state := c.snapshotLocked()
	observers := append([]func(State){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

// Send runs one chat turn. Blank content is ignored. On failure the fallback
// reply is appended and spoken and the underlying error is returned; the
// conversation is already recovered, so callers may only log it.
func (c *Controller) Send(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	c.mu.Lock()
	c.conv.Append(models.UserMessage(content))
	c.streaming = true
	history := c.conv.Messages()
	c.mu.Unlock()

	if c.clearInput != nil {
		c.clearInput()
	}
	c.notify()

	defer func() {
		c.mu.Lock()
		c.streaming = false
		c.mu.Unlock()
		c.notify()
	}()

	reply, err := c.stream(ctx, history)
	if err != nil {
		log.Error().Err(err).Msg("chat request failed")

		c.mu.Lock()
		c.conv.Append(models.AssistantMessage(models.FallbackReply))
		c.mu.Unlock()
		c.notify()

		c.speak(models.FallbackReply, c.fallbackDelay)
		return err
	}

	if c.autoSpeak && strings.TrimSpace(reply) != "" {
		c.speak(reply, time.Duration(utf8.RuneCountInString(reply))*c.perChar)
	}

	return nil
}

// stream posts history and folds the reply into the trailing assistant
// message as each chunk arrives. It returns the full reply text.
func (c *Controller) stream(ctx context.Context, history []models.Message) (string, error) {
	body, err := c.client.StreamChat(ctx, history)
	if err != nil {
		return "", err
	}
	if body == nil {
		return "", fmt.Errorf("no response body")
	}
	defer body.Close()

	// The decoder holds back incomplete UTF-8 sequences until the next read.
	reader := transform.NewReader(body, unicode.UTF8.NewDecoder())
	buf := make([]byte, readBufferSize)

	var accumulated strings.Builder
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			accumulated.Write(buf[:n])

			c.mu.Lock()
			c.conv.UpsertTrailingAssistant(accumulated.String())
			c.mu.Unlock()
			c.notify()
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return accumulated.String(), fmt.Errorf("failed to read reply stream: %w", readErr)
		}
	}

	return accumulated.String(), nil
}

// speak starts an utterance and turns the speaking flag on until the speaker
// reports completion, or until estimate elapses when it cannot.
func (c *Controller) speak(text string, estimate time.Duration) {
	if c.speaker == nil {
		return
	}

	done := c.speaker.Speak(text)

	c.mu.Lock()
	c.speakGen++
	gen := c.speakGen
	c.speaking = true
	c.mu.Unlock()
	c.notify()

	if done == nil {
		time.AfterFunc(estimate, func() { c.finishSpeaking(gen) })
		return
	}
	go func() {
		<-done
		c.finishSpeaking(gen)
	}()
}

// finishSpeaking clears the flag unless a newer utterance has started.
func (c *Controller) finishSpeaking(gen uint64) {
	c.mu.Lock()
	if gen != c.speakGen || !c.speaking {
		c.mu.Unlock()
		return
	}
	c.speaking = false
	c.mu.Unlock()
	c.notify()
}

// Speak speaks arbitrary text through the controller so the speaking flag
// tracks it.
func (c *Controller) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	c.speak(text, time.Duration(utf8.RuneCountInString(text))*c.perChar)
}

// StopSpeaking cancels speech and clears the speaking flag.
func (c *Controller) StopSpeaking() {
	if c.speaker != nil {
		c.speaker.StopSpeaking()
	}

	c.mu.Lock()
	c.speakGen++
	c.speaking = false
	c.mu.Unlock()
	c.notify()
}

// LastReply returns the most recent assistant message content.
func (c *Controller) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.conv.LastAssistant()
	return m.Content, ok
}

// Streaming reports whether a reply is in flight.
func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// Speaking reports whether speech output is active.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}
