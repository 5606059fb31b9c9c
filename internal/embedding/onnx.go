//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/mitsumori/pkg/utils"
)

// ONNXEmbedder runs a BERT-style sentence embedding model locally through ONNX Runtime.
// It needs CGO and the onnxruntime shared library. Inference is serialized because the
// session reuses one set of bound tensors.
type ONNXEmbedder struct {
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer

	mu      sync.Mutex
	session *ort.AdvancedSession
	inputs  []*ort.Tensor[int64] // input_ids, attention_mask, token_type_ids
	output  *ort.Tensor[float32]
}

var ortInit sync.Once
var ortInitErr error

// NewONNXEmbedder loads the model at modelPath.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("onnx embedder: model path is required")
	}
	if dimensions <= 0 {
		dimensions = 384
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	ortInit.Do(func() { ortInitErr = ort.InitializeEnvironment() })
	if ortInitErr != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", ortInitErr)
	}

	e := &ONNXEmbedder{dimensions: dimensions, maxTokens: maxTokens, tokenizer: &SimpleTokenizer{}}
	shape := ort.NewShape(1, int64(maxTokens))
	for _, name := range []string{"input_ids", "attention_mask", "token_type_ids"} {
		t, err := ort.NewTensor(shape, make([]int64, maxTokens))
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		e.inputs = append(e.inputs, t)
	}
	out, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	e.output = out

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{e.inputs[0], e.inputs[1], e.inputs[2]},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	e.session = session
	return e, nil
}

// Embed tokenizes text, runs inference and returns the L2-normalized output.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)

	e.mu.Lock()
	defer e.mu.Unlock()
	copy(e.inputs[0].GetData(), ids)
	copy(e.inputs[1].GetData(), mask)
	copy(e.inputs[2].GetData(), types)
	if err := e.session.Run(); err != nil {
		return nil, &ProviderError{Provider: ProviderONNX, Err: err}
	}
	vec := make([]float32, e.dimensions)
	copy(vec, e.output.GetData())
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and its tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	for _, t := range e.inputs {
		_ = t.Destroy()
	}
	e.inputs = nil
	if e.output != nil {
		_ = e.output.Destroy()
		e.output = nil
	}
	return err
}
