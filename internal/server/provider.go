package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"

	"github.com/diogo/llamavoice/internal/models"
)

// Provider generates a streamed reply. emit is called once per text delta;
// returning an error from emit aborts generation.
type Provider interface {
	Name() string
	Stream(ctx context.Context, messages []models.Message, emit func(string) error) error
}

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a provider for the Ollama server at rawURL.
func NewOllamaProvider(rawURL, model string) (*OllamaProvider, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", rawURL, err)
	}
	return &OllamaProvider{client: api.NewClient(base, http.DefaultClient), model: model}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Stream(ctx context.Context, messages []models.Message, emit func(string) error) error {
	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}

	stream := true
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: msgs,
		Stream:   &stream,
	}

	return p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		return emit(resp.Message.Content)
	})
}

// OpenAIProvider uses the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider with apiKey.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Stream(ctx context.Context, messages []models.Message, emit func(string) error) error {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := emit(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

// NewProvider builds the provider named by name.
func NewProvider(name, model, ollamaURL, openAIKey string) (Provider, error) {
	switch name {
	case "", "ollama":
		return NewOllamaProvider(ollamaURL, model)
	case "openai":
		if openAIKey == "" {
			return nil, errors.New("openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAIProvider(openAIKey, model), nil
	}
	return nil, fmt.Errorf("unknown provider %q (valid: ollama, openai)", name)
}
