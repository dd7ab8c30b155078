package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/llamavoice/internal/errors"
	"github.com/diogo/llamavoice/internal/models"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Messages []models.Message `json:"messages"`
}

// StreamChat posts the conversation and returns the streamed reply body.
// Non-2xx responses are returned as *errors.RequestError.
func (c *Client) StreamChat(ctx context.Context, messages []models.Message) (io.ReadCloser, error) {
	if messages == nil {
		messages = []models.Message{}
	}

	payload, err := json.Marshal(ChatRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	log.Debug().Str("url", c.URL()).Int("messages", len(messages)).Msg("posting chat request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apierrors.NewRequestError(resp.StatusCode, ParseErrorMessage(body))
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, apierrors.ErrNoBody
	}

	return resp.Body, nil
}

// ParseErrorMessage extracts the "error" string from a JSON error payload.
// It returns "" when the body is not JSON or the field is missing or empty.
func ParseErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	field := gjson.GetBytes(body, "error")
	if field.Type != gjson.String {
		return ""
	}
	return field.String()
}
