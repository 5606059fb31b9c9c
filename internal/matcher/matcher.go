// Package matcher finds the catalog entry most similar to each detection.
//
// Matching is a full scan: every detection is scored against every catalog entry,
// O(detections × catalog). That is fine for catalogs of a few thousand products.
package matcher

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/catalog"
	"github.com/hyperjump/mitsumori/internal/embedding"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/vector"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// Acceptance thresholds in cosine space. A match is accepted only when its score is
// strictly greater than the threshold.
const (
	DefaultThreshold = 0.50
	StrictThreshold  = 0.55
)

// Matcher scores detections against catalog entries.
type Matcher struct {
	embedder  embedding.Embedder
	cache     *catalog.EmbeddingCache
	threshold float64
	logger    *zap.Logger
}

// New returns a Matcher. The cache supplies entry embeddings, computing missing ones.
func New(embedder embedding.Embedder, cache *catalog.EmbeddingCache, threshold float64, logger *zap.Logger) *Matcher {
	return &Matcher{
		embedder:  embedder,
		cache:     cache,
		threshold: threshold,
		logger:    utils.OrNop(logger),
	}
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// SearchText is the text embedded for a detection: its name and attributes.
func SearchText(d models.Detection) string {
	return strings.TrimSpace(d.ItemName + " " + d.Attributes)
}

// Match returns the best entry for d. Ties keep the earliest entry. With an empty
// catalog the result has a nil Entry and is not accepted.
func (m *Matcher) Match(ctx context.Context, d models.Detection, entries []*models.CatalogEntry) (models.MatchResult, error) {
	result := models.MatchResult{Detection: d}
	if len(entries) == 0 {
		return result, nil
	}
	query, err := m.embedder.Embed(ctx, SearchText(d))
	if err != nil {
		return result, fmt.Errorf("embed detection %q: %w", d.ItemName, err)
	}

	best := -1.0
	var bestEntry *models.CatalogEntry
	for _, e := range entries {
		vec, err := m.cache.EnsureEmbedding(ctx, e)
		if err != nil {
			return result, err
		}
		score, err := vector.Cosine(query, vec)
		if err != nil {
			return result, fmt.Errorf("score product %s: %w", e.ID, err)
		}
		if bestEntry == nil || score > best {
			best = score
			bestEntry = e
		}
	}

	result.Entry = bestEntry
	result.Score = best
	result.Accepted = best > m.threshold
	m.logger.Debug("Matched detection",
		zap.String("item", d.ItemName),
		zap.String("product", bestEntry.Name),
		zap.Float64("score", best),
		zap.Bool("accepted", result.Accepted))
	return result, nil
}

// LineItem builds the priced line for an accepted match.
func LineItem(r models.MatchResult) models.LineItem {
	e := r.Entry
	return models.LineItem{
		ItemNo:          e.ItemNo,
		ProductID:       e.ProductID,
		Product:         e.Name,
		ProductGroup:    e.Group,
		Supplier:        e.Supplier,
		Store:           e.Store,
		Quantity:        r.Detection.Quantity,
		UnitPrice:       e.Price,
		LineTotal:       float64(r.Detection.Quantity) * e.Price,
		MatchConfidence: utils.Round(r.Score, 3),
	}
}

// MatchAll matches detections in order and returns line items for accepted matches
// alongside every match result. Rejected detections produce no line item.
func (m *Matcher) MatchAll(ctx context.Context, detections []models.Detection, entries []*models.CatalogEntry) ([]models.LineItem, []models.MatchResult, error) {
	items := make([]models.LineItem, 0, len(detections))
	results := make([]models.MatchResult, 0, len(detections))
	for _, d := range detections {
		r, err := m.Match(ctx, d, entries)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, r)
		if r.Accepted {
			items = append(items, LineItem(r))
		}
	}
	return items, results, nil
}
