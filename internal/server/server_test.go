package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diogo/llamavoice/internal/api"
	"github.com/diogo/llamavoice/internal/models"
)

func newTestServer(t *testing.T, provider Provider, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(provider, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postChat(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatStreamsChunks(t *testing.T) {
	provider := &MockProvider{Chunks: []string{"Hel", "lo", "!"}}
	srv := newTestServer(t, provider)

	resp := postChat(t, srv.URL, `{"messages":[{"role":"user","content":"hi"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Hello!" {
		t.Errorf("body = %q, want Hello!", body)
	}

	got := provider.LastMessages()
	if len(got) != 1 || got[0] != models.UserMessage("hi") {
		t.Errorf("provider messages = %+v", got)
	}
}

func TestChatPrependsSystemPrompt(t *testing.T) {
	provider := &MockProvider{Chunks: []string{"ok"}}
	srv := newTestServer(t, provider, WithSystemPrompt("be brief"))

	postChat(t, srv.URL, `{"messages":[{"role":"user","content":"hi"}]}`)

	got := provider.LastMessages()
	if len(got) != 2 || got[0].Role != models.RoleSystem || got[0].Content != "be brief" {
		t.Errorf("provider messages = %+v", got)
	}
}

func TestChatBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"messages":`},
		{"empty messages", `{"messages":[]}`},
		{"missing messages", `{}`},
		{"unknown role", `{"messages":[{"role":"robot","content":"x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &MockProvider{}
			srv := newTestServer(t, provider)

			resp := postChat(t, srv.URL, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var payload map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload["error"] == "" {
				t.Errorf("payload = %v, err = %v", payload, err)
			}
			if len(provider.Received) != 0 {
				t.Error("provider should not be called")
			}
		})
	}
}

func TestChatProviderFailure(t *testing.T) {
	srv := newTestServer(t, &MockProvider{Err: errors.New("model not found")})

	resp := postChat(t, srv.URL, `{"messages":[{"role":"user","content":"hi"}]}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if payload["error"] != "model not found" {
		t.Errorf("error = %q", payload["error"])
	}
}

func TestChatFailureAfterFirstChunk(t *testing.T) {
	srv := newTestServer(t, &MockProvider{Chunks: []string{"partial"}, Err: errors.New("boom")})

	resp := postChat(t, srv.URL, `{"messages":[{"role":"user","content":"hi"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "partial" {
		t.Errorf("body = %q", body)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &MockProvider{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, &MockProvider{Chunks: []string{"x"}}, WithRateLimit(1))

	first := postChat(t, srv.URL, `{"messages":[{"role":"user","content":"a"}]}`)
	io.Copy(io.Discard, first.Body)
	second := postChat(t, srv.URL, `{"messages":[{"role":"user","content":"b"}]}`)

	if first.StatusCode != http.StatusOK {
		t.Errorf("first status = %d", first.StatusCode)
	}
	if second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", second.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &MockProvider{}, WithAllowedOrigins([]string{"http://app.local"}))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/chat", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://app.local" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

// The chat client and the backend agree on the wire format end to end.
func TestClientRoundTrip(t *testing.T) {
	srv := newTestServer(t, &MockProvider{Chunks: []string{"caf", "é"}})

	client := api.NewClient(api.WithBaseURL(srv.URL))
	body, err := client.StreamChat(context.Background(), []models.Message{models.UserMessage("hi")})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if string(data) != "café" {
		t.Errorf("reply = %q", data)
	}
}

func TestClientSeesServerError(t *testing.T) {
	srv := newTestServer(t, &MockProvider{Err: errors.New("boom")})

	client := api.NewClient(api.WithBaseURL(srv.URL))
	_, err := client.StreamChat(context.Background(), []models.Message{models.UserMessage("hi")})
	if err == nil || err.Error() != "boom" {
		t.Errorf("StreamChat() error = %v, want boom", err)
	}
}

func TestNewProvider(t *testing.T) {
	if p, err := NewProvider("ollama", "llama3.2", "http://localhost:11434", ""); err != nil || p.Name() != "ollama" {
		t.Errorf("ollama provider = %v, %v", p, err)
	}
	if _, err := NewProvider("openai", "gpt-4o-mini", "", ""); err == nil {
		t.Error("openai without key should fail")
	}
	if p, err := NewProvider("openai", "gpt-4o-mini", "", "sk-test"); err != nil || p.Name() != "openai" {
		t.Errorf("openai provider = %v, %v", p, err)
	}
	if _, err := NewProvider("bard", "", "", ""); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestOllamaProviderStreams(t *testing.T) {
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":"Hi"},"done":false}`+"\n")
		io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":" there"},"done":false}`+"\n")
		io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":""},"done":true}`+"\n")
	}))
	defer ollama.Close()

	p, err := NewOllamaProvider(ollama.URL, "m")
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	err = p.Stream(context.Background(), []models.Message{models.UserMessage("hi")}, func(s string) error {
		sb.WriteString(s)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if sb.String() != "Hi there" {
		t.Errorf("reply = %q", sb.String())
	}
}
