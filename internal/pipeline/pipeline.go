// Package pipeline runs one photo through detection, catalog matching, merging and
// quotation assembly.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/catalog"
	"github.com/hyperjump/mitsumori/internal/matcher"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/quote"
	"github.com/hyperjump/mitsumori/internal/vision"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// ErrNoDetector is returned by Analyze when vision is disabled.
var ErrNoDetector = errors.New("no vision detector configured")

// Stats summarizes one run.
type Stats struct {
	Detections         int           `json:"detections"`
	Accepted           int           `json:"accepted"`
	Rejected           int           `json:"rejected"`
	LineItems          int           `json:"line_items"`
	CatalogSize        int           `json:"catalog_size"`
	EmbeddingsComputed int           `json:"embeddings_computed"`
	Duration           time.Duration `json:"duration_ns"`
}

// Result is a quotation plus the per-detection match outcomes that produced it.
type Result struct {
	Quotation *models.Quotation    `json:"quotation"`
	Matches   []models.MatchResult `json:"-"`
	Stats     Stats                `json:"stats"`
}

// Pipeline wires the detector, catalog cache, matcher and assembler together.
type Pipeline struct {
	detector  vision.Detector
	cache     *catalog.EmbeddingCache
	matcher   *matcher.Matcher
	assembler *quote.Assembler
	logger    *zap.Logger
}

// New returns a pipeline. detector may be nil when only QuoteDetections is used.
func New(detector vision.Detector, cache *catalog.EmbeddingCache, m *matcher.Matcher, assembler *quote.Assembler, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		detector:  detector,
		cache:     cache,
		matcher:   m,
		assembler: assembler,
		logger:    utils.OrNop(logger),
	}
}

// Analyze detects furniture in image and quotes it.
func (p *Pipeline) Analyze(ctx context.Context, image []byte, opts quote.Options) (*Result, error) {
	if p.detector == nil {
		return nil, ErrNoDetector
	}
	raw, err := p.detector.Detect(ctx, image)
	if err != nil {
		return nil, err
	}
	return p.QuoteRaw(ctx, raw, opts)
}

// QuoteRaw validates raw detection records and quotes them. A malformed record
// fails the whole run.
func (p *Pipeline) QuoteRaw(ctx context.Context, raw []models.RawDetection, opts quote.Options) (*Result, error) {
	detections, err := models.ValidateDetections(raw)
	if err != nil {
		return nil, err
	}
	return p.QuoteDetections(ctx, detections, opts)
}

// QuoteDetections matches detections against the catalog and assembles the quotation.
// Missing catalog embeddings are computed and stored first. Any provider failure
// aborts the run; no partial quotation is returned.
func (p *Pipeline) QuoteDetections(ctx context.Context, detections []models.Detection, opts quote.Options) (*Result, error) {
	start := time.Now()
	stats := Stats{Detections: len(detections)}

	var (
		items   []models.LineItem
		matches []models.MatchResult
	)
	if len(detections) > 0 {
		entries, err := p.cache.Entries(ctx)
		if err != nil {
			return nil, err
		}
		stats.CatalogSize = len(entries)
		if stats.EmbeddingsComputed, err = p.cache.EnsureAll(ctx, entries); err != nil {
			return nil, err
		}
		items, matches, err = p.matcher.MatchAll(ctx, detections, entries)
		if err != nil {
			return nil, err
		}
	}
	for _, m := range matches {
		if m.Accepted {
			stats.Accepted++
		} else {
			stats.Rejected++
		}
	}

	merged := quote.Merge(items)
	stats.LineItems = len(merged)
	q, err := p.assembler.Assemble(merged, opts)
	if err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)

	p.logger.Info("Quotation generated",
		zap.String("quotation_id", q.QuotationID),
		zap.Int("detections", stats.Detections),
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected),
		zap.Int("line_items", stats.LineItems),
		zap.Float64("grand_total", q.Pricing.GrandTotal),
		zap.Duration("duration", stats.Duration))

	return &Result{Quotation: q, Matches: matches, Stats: stats}, nil
}
