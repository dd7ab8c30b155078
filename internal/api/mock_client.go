package api

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/diogo/llamavoice/internal/models"
)

// MockChatClient is a mock implementation of ChatClientInterface for testing.
// Chunks are delivered one Read at a time so tests can observe incremental
// updates.
type MockChatClient struct {
	mu sync.Mutex

	// Mock return values
	Chunks    []string
	StreamErr error
	ReadErr   error

	// Call recorders
	Calls        int
	LastMessages []models.Message
}

// Ensure MockChatClient implements ChatClientInterface
var _ ChatClientInterface = (*MockChatClient)(nil)

func (m *MockChatClient) StreamChat(_ context.Context, messages []models.Message) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastMessages = append([]models.Message(nil), messages...)

	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	return &chunkReader{chunks: append([]string(nil), m.Chunks...), err: m.ReadErr}, nil
}

// CallCount returns how many times StreamChat was called
func (m *MockChatClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// chunkReader returns one chunk per Read, then err (or io.EOF).
type chunkReader struct {
	chunks []string
	cur    *strings.Reader
	err    error
	closed bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for r.cur == nil || r.cur.Len() == 0 {
		if len(r.chunks) == 0 {
			if r.err != nil {
				return 0, r.err
			}
			return 0, io.EOF
		}
		r.cur = strings.NewReader(r.chunks[0])
		r.chunks = r.chunks[1:]
	}
	return r.cur.Read(p)
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}
