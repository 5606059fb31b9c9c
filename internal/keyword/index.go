// Package keyword provides full-text search over the product catalog, used by the
// admin catalog browser. Matching for quotations is semantic and lives in matcher.
package keyword

import (
	"context"

	"github.com/hyperjump/mitsumori/internal/models"
)

// SearchOptions tune a keyword search. Nil means exact term matching.
type SearchOptions struct {
	// Fuzzy enables typo-tolerant matching within Fuzziness edits (default 1).
	Fuzzy     bool
	Fuzziness int
}

// ProductIndex indexes catalog entries for keyword lookup.
type ProductIndex interface {
	Index(ctx context.Context, entry *models.CatalogEntry) error
	IndexAll(ctx context.Context, entries []*models.CatalogEntry) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error)
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single keyword search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// TermDictionary exposes indexed terms with their document frequency.
type TermDictionary interface {
	Terms() (map[string]int, error)
}
