package matcher

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/mitsumori/internal/catalog"
	"github.com/hyperjump/mitsumori/internal/embedding"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/vector"
)

type memStore struct {
	writes int
}

func (s *memStore) ListProducts(ctx context.Context) ([]*models.CatalogEntry, error) {
	return nil, nil
}

func (s *memStore) SetProductEmbedding(ctx context.Context, id string, vec []float32) error {
	s.writes++
	return nil
}

// unit returns a 2-d unit vector whose cosine with (1, 0) is c.
func unit(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

func newMatcher(emb embedding.Embedder, threshold float64) *Matcher {
	return New(emb, catalog.NewEmbeddingCache(&memStore{}, emb), threshold, nil)
}

func chairCatalog() []*models.CatalogEntry {
	return []*models.CatalogEntry{
		{ID: "c1", ItemNo: "1001", ProductID: "CH-100", Name: "Ergo Chair", Group: "Chairs", Price: 7900, Embedding: []float32{1, 0}},
		{ID: "d1", ItemNo: "2001", ProductID: "DK-1", Name: "Oak Desk", Group: "Desks", Price: 15000, Embedding: []float32{0, 1}},
	}
}

func TestSearchText(t *testing.T) {
	tests := []struct {
		d    models.Detection
		want string
	}{
		{models.Detection{ItemName: "black office chair"}, "black office chair"},
		{models.Detection{ItemName: "desk", Attributes: "wooden, L-shaped"}, "desk wooden, L-shaped"},
	}
	for _, tt := range tests {
		if got := SearchText(tt.d); got != tt.want {
			t.Errorf("SearchText(%+v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestMatch_AcceptedChair(t *testing.T) {
	emb := embedding.NewMockEmbedder(2).Set("black office chair", unit(0.81))
	m := newMatcher(emb, DefaultThreshold)

	items, results, err := m.MatchAll(context.Background(),
		[]models.Detection{{ItemName: "black office chair", Quantity: 2}}, chairCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || len(results) != 1 {
		t.Fatalf("items=%d results=%d", len(items), len(results))
	}
	li := items[0]
	if li.Product != "Ergo Chair" || li.ProductID != "CH-100" || li.ItemNo != "1001" {
		t.Errorf("wrong product %+v", li)
	}
	if li.Quantity != 2 || li.UnitPrice != 7900 || li.LineTotal != 15800 {
		t.Errorf("wrong pricing %+v", li)
	}
	if li.MatchConfidence != 0.81 {
		t.Errorf("confidence = %v, want 0.81", li.MatchConfidence)
	}
}

func TestMatch_BelowThresholdDropped(t *testing.T) {
	emb := embedding.NewMockEmbedder(2).Set("lamp", unit(0.40))
	m := newMatcher(emb, DefaultThreshold)
	catalogEntries := []*models.CatalogEntry{{ID: "c1", Name: "Ergo Chair", Price: 1, Embedding: []float32{1, 0}}}

	items, results, err := m.MatchAll(context.Background(), []models.Detection{{ItemName: "lamp", Quantity: 1}}, catalogEntries)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("expected no line items, got %+v", items)
	}
	if results[0].Accepted || results[0].Entry == nil {
		t.Errorf("expected rejected result with best entry, got %+v", results[0])
	}
}

func TestMatch_ThresholdBoundary(t *testing.T) {
	query := unit(0.7)
	entryVec := []float32{1, 0}
	exact, err := vector.Cosine(query, entryVec)
	if err != nil {
		t.Fatal(err)
	}
	entries := func() []*models.CatalogEntry {
		return []*models.CatalogEntry{{ID: "c1", Name: "Chair", Price: 10, Embedding: entryVec}}
	}
	d := models.Detection{ItemName: "chair", Quantity: 1}
	emb := embedding.NewMockEmbedder(2).Set("chair", query)

	r, err := newMatcher(emb, exact).Match(context.Background(), d, entries())
	if err != nil {
		t.Fatal(err)
	}
	if r.Accepted {
		t.Error("score equal to threshold must be rejected")
	}

	r, err = newMatcher(emb, exact-1e-9).Match(context.Background(), d, entries())
	if err != nil {
		t.Fatal(err)
	}
	if !r.Accepted {
		t.Error("score just above threshold must be accepted")
	}
}

func TestMatch_TieKeepsFirst(t *testing.T) {
	emb := embedding.NewMockEmbedder(2).Set("chair", []float32{1, 0})
	entries := []*models.CatalogEntry{
		{ID: "first", Name: "Chair A", Embedding: []float32{1, 0}},
		{ID: "second", Name: "Chair B", Embedding: []float32{1, 0}},
	}
	r, err := newMatcher(emb, DefaultThreshold).Match(context.Background(), models.Detection{ItemName: "chair", Quantity: 1}, entries)
	if err != nil {
		t.Fatal(err)
	}
	if r.Entry.ID != "first" {
		t.Errorf("tie should keep first entry, got %s", r.Entry.ID)
	}
}

func TestMatch_EmptyCatalog(t *testing.T) {
	emb := embedding.NewMockEmbedder(2)
	r, err := newMatcher(emb, DefaultThreshold).Match(context.Background(), models.Detection{ItemName: "chair", Quantity: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Accepted || r.Entry != nil {
		t.Errorf("empty catalog should yield no match, got %+v", r)
	}
	if emb.Calls() != 0 {
		t.Error("empty catalog should not call the provider")
	}
}

func TestMatch_LazyEmbeddingsComputedOnce(t *testing.T) {
	emb := embedding.NewMockEmbedder(16)
	store := &memStore{}
	m := New(emb, catalog.NewEmbeddingCache(store, emb), DefaultThreshold, nil)
	entries := []*models.CatalogEntry{{ID: "c1", Name: "Chair"}, {ID: "d1", Name: "Desk"}}
	detections := []models.Detection{{ItemName: "chair", Quantity: 1}, {ItemName: "desk", Quantity: 1}}

	if _, _, err := m.MatchAll(context.Background(), detections, entries); err != nil {
		t.Fatal(err)
	}
	if store.writes != 2 {
		t.Errorf("catalog writes = %d, want 2", store.writes)
	}
	// two queries + two catalog embeddings
	if emb.Calls() != 4 {
		t.Errorf("provider calls = %d, want 4", emb.Calls())
	}
}

func TestMatch_Errors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		emb := embedding.NewMockEmbedder(2)
		emb.FailWith(errors.New("down"))
		_, _, err := newMatcher(emb, DefaultThreshold).MatchAll(context.Background(),
			[]models.Detection{{ItemName: "chair", Quantity: 1}}, chairCatalog())
		var perr *embedding.ProviderError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		emb := embedding.NewMockEmbedder(3)
		_, _, err := newMatcher(emb, DefaultThreshold).MatchAll(context.Background(),
			[]models.Detection{{ItemName: "chair", Quantity: 1}}, chairCatalog())
		if !errors.Is(err, vector.ErrDimensionMismatch) {
			t.Fatalf("expected ErrDimensionMismatch, got %v", err)
		}
	})
}
