// Package embedding turns text into vectors. Providers are the Gemini API, a local
// ONNX model and a deterministic mock; any of them can be wrapped in an LRU cache.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/mitsumori/internal/gemini"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ProviderError reports a failed call to an embedding provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderONNX   = "onnx"
	ProviderMock   = "mock"
)

// Options selects and configures a provider.
type Options struct {
	Provider   string
	Model      string
	ModelPath  string
	Dimensions int
	MaxTokens  int
	CacheSize  int
	Client     *gemini.Client
}

// New builds the configured embedder, wrapped in a CachedEmbedder when CacheSize > 0.
func New(opts Options) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch strings.ToLower(opts.Provider) {
	case ProviderGemini, "":
		if opts.Client == nil {
			return nil, fmt.Errorf("gemini embedder requires a client")
		}
		e = NewGeminiEmbedder(opts.Client, opts.Model, opts.Dimensions)
	case ProviderONNX:
		e, err = NewONNXEmbedder(opts.ModelPath, opts.Dimensions, opts.MaxTokens)
		if err != nil {
			return nil, err
		}
	case ProviderMock:
		e = NewMockEmbedder(opts.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}
	if opts.CacheSize > 0 {
		e = NewCachedEmbedder(e, opts.CacheSize)
	}
	return e, nil
}

func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
