// Package gemini provides a minimal client for the Generative Language REST API,
// shared by the embedding provider and the vision detector.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls Gemini model methods over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gemini api error: status=%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gemini api error: status=%d", e.StatusCode)
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL; a zero timeout means 60s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Call invokes model:method with req as the JSON body and decodes the response into out.
func (c *Client) Call(ctx context.Context, model, method string, req, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("gemini: missing API key")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("gemini: marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/%s:%s", c.baseURL, ModelName(model), method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(payload, &envelope) == nil {
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

// ModelName returns model with the "models/" prefix the API expects.
func ModelName(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

// Part is one piece of content: text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64-encoded bytes (encoding/json encodes []byte as base64).
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Content is a list of parts with an optional role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}
