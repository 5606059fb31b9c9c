package embedding

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/mitsumori/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. Unknown text
// gets a unit vector derived from its hash; fixed vectors can be registered per text.
type MockEmbedder struct {
	dimensions int
	calls      atomic.Int64

	mu    sync.RWMutex
	fixed map[string][]float32
	fail  error
}

// NewMockEmbedder returns a mock producing vectors of the given dimensions (default 384).
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions, fixed: make(map[string][]float32)}
}

// Set registers the vector returned for text.
func (e *MockEmbedder) Set(text string, vec []float32) *MockEmbedder {
	e.mu.Lock()
	e.fixed[text] = vec
	e.mu.Unlock()
	return e
}

// FailWith makes every subsequent Embed call return err. Pass nil to recover.
func (e *MockEmbedder) FailWith(err error) {
	e.mu.Lock()
	e.fail = err
	e.mu.Unlock()
}

// Calls returns how many times Embed has been invoked.
func (e *MockEmbedder) Calls() int {
	return int(e.calls.Load())
}

// Embed returns the registered vector for text or a hash-derived unit vector.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	fail := e.fail
	vec, ok := e.fixed[text]
	e.mu.RUnlock()
	if fail != nil {
		return nil, &ProviderError{Provider: ProviderMock, Err: fail}
	}
	if ok {
		return append([]float32(nil), vec...), nil
	}

	h := HashString(text)
	emb := make([]float32, e.dimensions)
	for i := range emb {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *MockEmbedder) Close() error {
	return nil
}
