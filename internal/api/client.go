// Package api provides the HTTP client for the chat backend.
package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/diogo/llamavoice/internal/models"
)

// ChatClientInterface is the contract the chat controller depends on.
type ChatClientInterface interface {
	// StreamChat posts the whole conversation and returns the raw reply
	// stream. The caller must close the returned body.
	StreamChat(ctx context.Context, messages []models.Message) (io.ReadCloser, error)
}

// Client talks to a llamavoice-compatible chat backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	endpoint   string
	headers    map[string]string
}

// Ensure Client implements ChatClientInterface
var _ ChatClientInterface = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithBaseURL sets the backend origin, e.g. http://localhost:3000
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithEndpoint sets the chat path on the backend
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}
		c.endpoint = endpoint
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// NewClient creates a new chat Client. The default HTTP client has no
// timeout; streams are bounded by the request context only.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    models.DefaultServerURL,
		endpoint:   models.DefaultEndpoint,
		headers:    map[string]string{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns the full chat endpoint URL
func (c *Client) URL() string {
	return c.baseURL + c.endpoint
}
