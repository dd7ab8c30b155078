package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/diogo/llamavoice/internal/config"
	"github.com/diogo/llamavoice/internal/speech"
	"github.com/diogo/llamavoice/internal/theme"
	"github.com/diogo/llamavoice/internal/voice"
)

// scriptedRecognition replays a fixed list of events.
type scriptedRecognition struct {
	events chan voice.Event
}

func (r *scriptedRecognition) Events() <-chan voice.Event { return r.events }
func (r *scriptedRecognition) Stop() error                { return nil }

type scriptedRecognizer struct {
	events []voice.Event
}

func (s *scriptedRecognizer) Start(context.Context, voice.RecognitionConfig) (voice.Recognition, error) {
	ch := make(chan voice.Event, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return &scriptedRecognition{events: ch}, nil
}

type recordingSynth struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSynth) Speak(_ context.Context, u voice.Utterance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, u.Text)
	return nil
}

func (r *recordingSynth) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

type testDeps struct {
	*Dependencies
	out   *bytes.Buffer
	err   *bytes.Buffer
	synth *recordingSynth
}

// newTestDeps builds Dependencies with fake speech engines, storage in a
// temp dir, and the chat backend at serverURL.
func newTestDeps(t *testing.T, serverURL string, recognizer voice.RecognizerEngine) *testDeps {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.ServerURL = serverURL
	cfg.TranscriptDir = t.TempDir()

	td := &testDeps{
		out:   &bytes.Buffer{},
		err:   &bytes.Buffer{},
		synth: &recordingSynth{},
	}
	storagePath := filepath.Join(t.TempDir(), "storage.json")

	td.Dependencies = &Dependencies{
		Config: cfg,
		Out:    td.out,
		Err:    td.err,
		DetectEngines: func(config.VoiceConfig, config.Keys) speech.Engines {
			e := speech.Engines{Synthesizer: td.synth, SynthesizerName: "fake"}
			if recognizer != nil {
				e.Recognizer = recognizer
				e.RecognizerName = "fake"
			}
			return e
		},
		OpenStorage: func() (theme.Storage, error) {
			return config.NewLocalStorage(storagePath)
		},
	}
	return td
}

// chatBackend serves POST /api/chat with the given chunks, flushing after
// each one.
func chatBackend(t *testing.T, status int, chunks ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(chunks[0]))
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher, _ := w.(http.Flusher)
		for _, c := range chunks {
			_, _ = w.Write([]byte(c))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
