package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestClient_Call(t *testing.T) {
	c := NewClient("https://example.test/v1beta/", "secret", 0).WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v1beta/models/text-embedding-004:embedContent" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("x-goog-api-key") != "secret" {
				t.Fatalf("missing api key header")
			}
			return jsonResponse(http.StatusOK, `{"ok":true}`), nil
		}),
	})
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Call(context.Background(), "text-embedding-004", "embedContent", map[string]string{}, &out); err != nil {
		t.Fatal(err)
	}
	if !out.OK {
		t.Error("expected decoded response")
	}
}

func TestClient_CallAPIError(t *testing.T) {
	c := NewClient("https://example.test", "secret", 0).WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{"error":{"message":"quota exceeded"}}`), nil
		}),
	})
	err := c.Call(context.Background(), "models/x", "generateContent", struct{}{}, &struct{}{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Message != "quota exceeded" {
		t.Errorf("got %+v", apiErr)
	}
}

func TestClient_MissingKey(t *testing.T) {
	c := NewClient("", "", 0)
	if err := c.Call(context.Background(), "m", "embedContent", struct{}{}, &struct{}{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestModelName(t *testing.T) {
	if got := ModelName("gemini-2.5-flash"); got != "models/gemini-2.5-flash" {
		t.Errorf("got %s", got)
	}
	if got := ModelName("models/text-embedding-004"); got != "models/text-embedding-004" {
		t.Errorf("got %s", got)
	}
}
