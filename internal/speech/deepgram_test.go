package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	apierrors "github.com/diogo/llamavoice/internal/errors"
	"github.com/diogo/llamavoice/internal/voice"
)

type fakeAudio struct {
	data []byte
	err  error
}

func (f *fakeAudio) Open(ctx context.Context) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// deepgramServer upgrades the connection, sends messages, then drains
// client frames until the client disconnects.
func deepgramServer(t *testing.T, messages ...string) (*httptest.Server, chan *http.Request) {
	t.Helper()
	requests := make(chan *http.Request, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDeepgramInterimAndFinal(t *testing.T) {
	srv, requests := deepgramServer(t,
		`{"type":"Metadata"}`,
		`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hel","confidence":0.4}]}}`,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"hello world","confidence":0.93}]}}`,
	)

	dg := NewDeepgramLive("secret", &fakeAudio{data: make([]byte, 6400)}, WithDeepgramEndpoint(wsURL(srv)))
	rec, err := dg.Start(t.Context(), voice.DefaultRecognitionConfig("en-US"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	events := collect(t, rec)
	want := []voice.EventKind{voice.EventStart, voice.EventResult, voice.EventResult, voice.EventEnd}
	got := kinds(events)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	if events[1].Transcript != "hel" || events[1].IsFinal {
		t.Errorf("interim = %+v", events[1])
	}
	if events[2].Transcript != "hello world" || !events[2].IsFinal || events[2].Confidence != 0.93 {
		t.Errorf("final = %+v", events[2])
	}

	r := <-requests
	if r.Header.Get("Authorization") != "Token secret" {
		t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
	}
	q := r.URL.Query()
	if q.Get("language") != "en-US" || q.Get("interim_results") != "true" || q.Get("sample_rate") != "16000" {
		t.Errorf("query = %v", q)
	}
}

func TestDeepgramNoSpeech(t *testing.T) {
	srv, _ := deepgramServer(t)

	dg := NewDeepgramLive("k", &fakeAudio{},
		WithDeepgramEndpoint(wsURL(srv)),
		WithNoSpeechTimeout(50*time.Millisecond))
	rec, _ := dg.Start(t.Context(), voice.DefaultRecognitionConfig("en-US"))

	events := collect(t, rec)
	if len(events) != 3 || events[1].Kind != voice.EventError || events[1].Err.Code != apierrors.CodeNoSpeech {
		t.Fatalf("events = %+v", events)
	}
}

func TestDeepgramConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	dg := NewDeepgramLive("bad", &fakeAudio{}, WithDeepgramEndpoint(wsURL(srv)))
	rec, _ := dg.Start(t.Context(), voice.DefaultRecognitionConfig("en-US"))

	events := collect(t, rec)
	if len(events) != 2 || events[0].Kind != voice.EventError || events[0].Err.Code != apierrors.CodeNetwork {
		t.Fatalf("events = %+v", events)
	}
	if events[1].Kind != voice.EventEnd {
		t.Errorf("last event = %v, want end", events[1].Kind)
	}
}

func TestDeepgramAudioFailure(t *testing.T) {
	dg := NewDeepgramLive("k", &fakeAudio{err: errFake}, WithDeepgramEndpoint("ws://127.0.0.1:1"))
	rec, _ := dg.Start(t.Context(), voice.DefaultRecognitionConfig("en-US"))

	events := collect(t, rec)
	if len(events) != 2 || events[0].Err == nil || events[0].Err.Code != apierrors.CodeAudioCapture {
		t.Fatalf("events = %+v", events)
	}
}

func TestDeepgramStop(t *testing.T) {
	srv, _ := deepgramServer(t)

	dg := NewDeepgramLive("k", &fakeAudio{}, WithDeepgramEndpoint(wsURL(srv)))
	rec, _ := dg.Start(t.Context(), voice.DefaultRecognitionConfig("en-US"))

	first := <-rec.Events()
	if first.Kind != voice.EventStart {
		t.Fatalf("first event = %v, want start", first.Kind)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := rec.Stop(); !errors.Is(err, apierrors.ErrAlreadyStopped) {
		t.Errorf("second Stop() = %v, want ErrAlreadyStopped", err)
	}

	events := collect(t, rec)
	if len(events) == 0 || events[len(events)-1].Kind != voice.EventEnd {
		t.Errorf("events after stop = %+v", events)
	}
}

func TestParseDeepgramMessage(t *testing.T) {
	res, kind, ok := parseDeepgramMessage([]byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"hi","confidence":0.7}]}}`))
	if !ok || kind != "Results" {
		t.Fatalf("ok = %v, kind = %s", ok, kind)
	}
	if res.Transcript != "hi" || res.Confidence != 0.7 || !res.IsFinal || res.SpeechFinal {
		t.Errorf("result = %+v", res)
	}

	_, kind, ok = parseDeepgramMessage([]byte(`{"type":"UtteranceEnd"}`))
	if ok || kind != "UtteranceEnd" {
		t.Errorf("UtteranceEnd parsed as ok = %v, kind = %s", ok, kind)
	}
}
