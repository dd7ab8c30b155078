package server

import (
	"context"
	"sync"

	"github.com/diogo/llamavoice/internal/models"
)

// MockProvider is a Provider that replays fixed chunks.
type MockProvider struct {
	Chunks []string
	// Err is returned after the chunks are emitted.
	Err error

	mu       sync.Mutex
	Received [][]models.Message
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Stream(ctx context.Context, messages []models.Message, emit func(string) error) error {
	m.mu.Lock()
	m.Received = append(m.Received, append([]models.Message(nil), messages...))
	m.mu.Unlock()

	for _, c := range m.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(c); err != nil {
			return err
		}
	}
	return m.Err
}

// LastMessages returns the messages of the most recent call.
func (m *MockProvider) LastMessages() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Received) == 0 {
		return nil
	}
	return m.Received[len(m.Received)-1]
}
