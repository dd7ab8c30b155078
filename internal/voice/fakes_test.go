package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	apierrors "github.com/diogo/llamavoice/internal/errors"
)

// journal records engine calls in order across fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeRecognition struct {
	events  chan Event
	mu      sync.Mutex
	stopped bool
	j       *journal
	id      int
}

func (r *fakeRecognition) Events() <-chan Event { return r.events }

func (r *fakeRecognition) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return apierrors.ErrAlreadyStopped
	}
	r.stopped = true
	r.j.add("stop-recognition")
	return nil
}

func (r *fakeRecognition) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

type fakeRecognizer struct {
	mu       sync.Mutex
	j        *journal
	sessions []*fakeRecognition
	lastCfg  RecognitionConfig
	startErr error
}

func (f *fakeRecognizer) Start(_ context.Context, cfg RecognitionConfig) (Recognition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.lastCfg = cfg
	rec := &fakeRecognition{events: make(chan Event, 16), j: f.j, id: len(f.sessions)}
	f.sessions = append(f.sessions, rec)
	f.j.add("start-recognition")
	return rec, nil
}

func (f *fakeRecognizer) session(i int) *fakeRecognition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[i]
}

func (f *fakeRecognizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// fakeSynth blocks each utterance until it is cancelled or finish is called.
type fakeSynth struct {
	j       *journal
	mu      sync.Mutex
	release map[string]chan struct{}
	last    Utterance
}

func newFakeSynth(j *journal) *fakeSynth {
	return &fakeSynth{j: j, release: map[string]chan struct{}{}}
}

func (s *fakeSynth) gate(text string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.release[text]
	if !ok {
		ch = make(chan struct{})
		s.release[text] = ch
	}
	return ch
}

func (s *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	s.mu.Lock()
	s.last = u
	s.mu.Unlock()
	s.j.add("speak:" + u.Text)

	select {
	case <-ctx.Done():
		s.j.add("cancel:" + u.Text)
		return ctx.Err()
	case <-s.gate(u.Text):
		s.j.add("done:" + u.Text)
		return nil
	}
}

func (s *fakeSynth) finish(text string) {
	close(s.gate(text))
}

type fakeMic struct {
	err   error
	calls int
}

func (m *fakeMic) Request(context.Context) error {
	m.calls++
	return m.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []string
	logs   []string
}

func (n *recordingNotifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, msg)
}

func (n *recordingNotifier) Log(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logs = append(n.logs, msg)
}

func (n *recordingNotifier) Alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

func (n *recordingNotifier) Logs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.logs...)
}

type transcriptSink struct {
	mu   sync.Mutex
	got  []string
	seen chan struct{}
}

func newTranscriptSink() *transcriptSink {
	return &transcriptSink{seen: make(chan struct{}, 16)}
}

func (s *transcriptSink) handle(text string) {
	s.mu.Lock()
	s.got = append(s.got, text)
	s.mu.Unlock()
	s.seen <- struct{}{}
}

func (s *transcriptSink) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

var errTimeout = errors.New("timed out")

func eventually(cond func() bool) error {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return errTimeout
}
