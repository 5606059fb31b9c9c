package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mitsumori/internal/models"
)

func seedIndex(t *testing.T, idx *BleveIndex) {
	t.Helper()
	entries := []*models.CatalogEntry{
		{ID: "c1", ProductID: "CH-100", Name: "Ergo Chair", Description: "Black mesh office chair", Group: "Chairs", Tags: []string{"ergonomic"}},
		{ID: "d1", ProductID: "DK-1", Name: "Oak Desk", Description: "Solid oak executive desk", Group: "Desks"},
		{ID: "p1", Name: "Fiddle Leaf Fig", Description: "Indoor plant in ceramic pot", Group: "Plants"},
	}
	if err := idx.IndexAll(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
}

func TestBleveIndex_Search(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	seedIndex(t, idx)
	ctx := context.Background()

	hits, err := idx.Search(ctx, "office chair", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].ID != "c1" {
		t.Fatalf("expected chair first, got %+v", hits)
	}

	hits, _ = idx.Search(ctx, "DK-1", 10, nil)
	if len(hits) != 1 || hits[0].ID != "d1" {
		t.Errorf("product id lookup: got %+v", hits)
	}

	hits, _ = idx.Search(ctx, "   ", 10, nil)
	if hits != nil {
		t.Errorf("blank query should return nothing, got %+v", hits)
	}

	n, err := idx.DocCount()
	if err != nil || n != 3 {
		t.Errorf("DocCount = %d, %v", n, err)
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	seedIndex(t, idx)

	exact, _ := idx.Search(context.Background(), "chiar", 10, nil)
	if len(exact) != 0 {
		t.Errorf("exact search should miss a typo, got %+v", exact)
	}
	fuzzy, err := idx.Search(context.Background(), "chiar", 10, &SearchOptions{Fuzzy: true, Fuzziness: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(fuzzy) == 0 || fuzzy[0].ID != "c1" {
		t.Errorf("fuzzy search should find the chair, got %+v", fuzzy)
	}
}

func TestBleveIndex_DeleteAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	seedIndex(t, idx)
	ctx := context.Background()
	if err := idx.Delete(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	idx, err = NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if n, _ := idx.DocCount(); n != 2 {
		t.Errorf("DocCount after reopen = %d, want 2", n)
	}
	hits, _ := idx.Search(ctx, "plant", 10, nil)
	if len(hits) != 0 {
		t.Errorf("deleted product still found: %+v", hits)
	}
}

func TestBleveIndex_Terms(t *testing.T) {
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	seedIndex(t, idx)

	terms, err := idx.Terms()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"chair", "oak", "plant", "ergonomic"} {
		if terms[want] == 0 {
			t.Errorf("missing term %q", want)
		}
	}
}
