package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/mitsumori/internal/models"
)

// textFields are analyzed with the standard analyzer (lowercase, no stemming) so that
// "chairs" and "chair" stay distinct, as catalog names are matched literally.
var textFields = []string{"name", "short_text", "description", "product_group", "tags", "supplier"}

// BleveIndex implements ProductIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	for _, f := range textFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		doc.AddFieldMappingsAt(f, fm)
	}
	for _, f := range []string{"item_no", "product_id"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keywordanalyzer.Name
		doc.AddFieldMappingsAt(f, fm)
	}
	im.AddDocumentMapping("product", doc)
	im.DefaultType = "product"
	im.DefaultMapping = doc
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates an
// in-memory index. Remove the directory after changing the mapping to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}
	if _, err := os.Stat(path); err == nil {
		index, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func document(e *models.CatalogEntry) map[string]interface{} {
	return map[string]interface{}{
		"name":          e.Name,
		"short_text":    e.ShortText,
		"description":   e.Description,
		"product_group": e.Group,
		"tags":          strings.Join(e.Tags, " "),
		"supplier":      e.Supplier,
		"item_no":       e.ItemNo,
		"product_id":    e.ProductID,
	}
}

// Index adds or replaces entry in the index.
func (b *BleveIndex) Index(ctx context.Context, entry *models.CatalogEntry) error {
	if err := b.index.Index(entry.ID, document(entry)); err != nil {
		return fmt.Errorf("index product %s: %w", entry.ID, err)
	}
	return nil
}

// IndexAll replaces the index contents for entries in one batch.
func (b *BleveIndex) IndexAll(ctx context.Context, entries []*models.CatalogEntry) error {
	batch := b.index.NewBatch()
	for _, e := range entries {
		if err := batch.Index(e.ID, document(e)); err != nil {
			return fmt.Errorf("batch product %s: %w", e.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// Delete removes a product from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

func tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildQuery matches the analyzed text fields and, verbatim, the product code fields.
func buildQuery(query string, opts *SearchOptions) blevequery.Query {
	code := strings.TrimSpace(query)
	byProductID := bleve.NewTermQuery(code)
	byProductID.SetField("product_id")
	byItemNo := bleve.NewTermQuery(code)
	byItemNo.SetField("item_no")
	return bleve.NewDisjunctionQuery(textQuery(query, opts), byProductID, byItemNo)
}

func textQuery(query string, opts *SearchOptions) blevequery.Query {
	terms := tokenize(query)
	if opts == nil || !opts.Fuzzy || len(terms) == 0 {
		return bleve.NewMatchQuery(query)
	}
	fuzziness := opts.Fuzziness
	if fuzziness <= 0 {
		fuzziness = 1
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Search returns up to limit products matching query, best first.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	req := bleve.NewSearchRequest(buildQuery(query, opts))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = Hit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// DocCount returns the number of indexed products.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Terms returns every analyzed term in the text fields with its document frequency.
func (b *BleveIndex) Terms() (map[string]int, error) {
	terms := make(map[string]int)
	for _, field := range textFields {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("field dictionary %s: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil {
				dict.Close()
				return nil, err
			}
			if entry == nil {
				break
			}
			if c := int(entry.Count); c > terms[entry.Term] {
				terms[entry.Term] = c
			}
		}
		dict.Close()
	}
	return terms, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
