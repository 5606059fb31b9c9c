package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "ergonomic chair")
	b, _ := e.Embed(ctx, "ergonomic chair")
	c, _ := e.Embed(ctx, "standing desk")
	if len(a) != 16 {
		t.Fatalf("len = %d", len(a))
	}
	var norm float64
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should embed identically")
		}
		norm += float64(a[i]) * float64(a[i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("expected unit vector, norm^2=%v", norm)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different texts should embed differently")
	}
}

func TestMockEmbedder_FixedVectors(t *testing.T) {
	e := NewMockEmbedder(2).Set("chair", []float32{1, 0})
	got, err := e.Embed(context.Background(), "chair")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("got %v", got)
	}
	got[0] = 5
	again, _ := e.Embed(context.Background(), "chair")
	if again[0] != 1 {
		t.Error("returned vector must be a copy")
	}
	if e.Calls() != 2 {
		t.Errorf("Calls = %d", e.Calls())
	}
}

func TestNew(t *testing.T) {
	e, err := New(Options{Provider: "mock", Dimensions: 8, CacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("expected cached embedder, got %T", e)
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions = %d", e.Dimensions())
	}

	if _, err := New(Options{Provider: "gemini"}); err == nil {
		t.Error("gemini without client should fail")
	}
	if _, err := New(Options{Provider: "word2vec"}); err == nil {
		t.Error("unknown provider should fail")
	}
}
