package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/mitsumori/internal/gemini"
)

// DefaultGeminiModel is the embedding model used when none is configured.
const DefaultGeminiModel = "text-embedding-004"

// GeminiEmbedder calls the embedContent / batchEmbedContents methods.
type GeminiEmbedder struct {
	client     *gemini.Client
	model      string
	dimensions int
}

// NewGeminiEmbedder returns an embedder for model. dimensions is informational
// (text-embedding-004 produces 768) and is not sent to the API.
func NewGeminiEmbedder(client *gemini.Client, model string, dimensions int) *GeminiEmbedder {
	if model == "" {
		model = DefaultGeminiModel
	}
	if dimensions <= 0 {
		dimensions = 768
	}
	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions}
}

type embedContentRequest struct {
	Model   string         `json:"model,omitempty"`
	Content gemini.Content `json:"content"`
}

type contentEmbedding struct {
	Values []float32 `json:"values"`
}

type embedContentResponse struct {
	Embedding contentEmbedding `json:"embedding"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []contentEmbedding `json:"embeddings"`
}

// Embed returns the embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := embedContentRequest{Content: gemini.Content{Parts: []gemini.Part{{Text: text}}}}
	var resp embedContentResponse
	if err := e.client.Call(ctx, e.model, "embedContent", req, &resp); err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Err: err}
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("empty embedding")}
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds all texts in a single batchEmbedContents call.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := batchEmbedRequest{Requests: make([]embedContentRequest, len(texts))}
	for i, text := range texts {
		req.Requests[i] = embedContentRequest{
			Model:   gemini.ModelName(e.model),
			Content: gemini.Content{Parts: []gemini.Part{{Text: text}}},
		}
	}
	var resp batchEmbedResponse
	if err := e.client.Call(ctx, e.model, "batchEmbedContents", req, &resp); err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &ProviderError{
			Provider: ProviderGemini,
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client is shared.
func (e *GeminiEmbedder) Close() error {
	return nil
}
