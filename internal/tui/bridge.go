package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/diogo/llamavoice/internal/chat"
)

// Messages delivered from controller and voice goroutines.
type (
	// stateChangedMsg means the controller or voice state moved; the model
	// re-reads snapshots rather than trusting message contents.
	stateChangedMsg struct{}
	transcriptMsg   struct{ text string }
	clearInputMsg   struct{}
	alertMsg        struct {
		text string
		ack  chan struct{}
	}
)

// Bridge carries events from background goroutines into the bubbletea
// loop. It implements voice.Notifier; Alert blocks until the user
// dismisses the overlay or the bridge is closed.
type Bridge struct {
	inbox   chan tea.Msg
	changed chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewBridge creates a Bridge.
func NewBridge() *Bridge {
	return &Bridge{
		inbox:   make(chan tea.Msg, 16),
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (b *Bridge) post(msg tea.Msg) {
	select {
	case b.inbox <- msg:
	case <-b.done:
	}
}

// signal coalesces state changes.
func (b *Bridge) signal() {
	select {
	case b.changed <- struct{}{}:
	default:
	}
}

// Alert shows text in a blocking overlay.
func (b *Bridge) Alert(text string) {
	ack := make(chan struct{})
	b.post(alertMsg{text: text, ack: ack})
	select {
	case <-ack:
	case <-b.done:
	}
}

// Log records diagnostics that are not shown to the user.
func (b *Bridge) Log(text string) {
	log.Info().Msg(text)
}

// Transcript submits recognized speech as a chat message.
func (b *Bridge) Transcript(text string) {
	b.post(transcriptMsg{text: text})
}

// ClearInput empties the input field.
func (b *Bridge) ClearInput() {
	b.post(clearInputMsg{})
}

// VoiceState is the adapter state handler.
func (b *Bridge) VoiceState(listening, speaking bool) {
	b.signal()
}

// ChatState is the controller observer.
func (b *Bridge) ChatState(chat.State) {
	b.signal()
}

// Close releases blocked senders. Safe to call more than once.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// wait returns a command that delivers the next bridge event.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.inbox:
			return msg
		case <-b.changed:
			return stateChangedMsg{}
		case <-b.done:
			return nil
		}
	}
}

func isBridgeMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case stateChangedMsg, transcriptMsg, clearInputMsg, alertMsg:
		return true
	}
	return false
}
