// Package catalog holds the product catalog's embedding cache and file importers.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/mitsumori/internal/embedding"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// Store is the catalog persistence the cache reads from and writes embeddings back to.
type Store interface {
	ListProducts(ctx context.Context) ([]*models.CatalogEntry, error)
	SetProductEmbedding(ctx context.Context, id string, vec []float32) error
}

// DescriptiveText is the text embedded for an entry: name, short text, description,
// group and space-joined tags, in that order, separated by single spaces.
func DescriptiveText(e *models.CatalogEntry) string {
	return strings.Join([]string{
		e.Name,
		e.ShortText,
		e.Description,
		e.Group,
		strings.Join(e.Tags, " "),
	}, " ")
}

// EmbeddingCache computes catalog embeddings lazily and persists each one once.
type EmbeddingCache struct {
	store       Store
	embedder    embedding.Embedder
	logger      *zap.Logger
	concurrency int
	inflight    singleflight.Group
}

// Option configures an EmbeddingCache.
type Option func(*EmbeddingCache)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *EmbeddingCache) { c.logger = logger }
}

// WithConcurrency bounds how many entries EnsureAll embeds at once.
func WithConcurrency(n int) Option {
	return func(c *EmbeddingCache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewEmbeddingCache returns a cache over store using embedder for misses.
func NewEmbeddingCache(store Store, embedder embedding.Embedder, opts ...Option) *EmbeddingCache {
	c := &EmbeddingCache{store: store, embedder: embedder, concurrency: 1}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = utils.OrNop(c.logger)
	return c
}

// Entries reads the catalog. Returned entries may still lack embeddings.
func (c *EmbeddingCache) Entries(ctx context.Context) ([]*models.CatalogEntry, error) {
	entries, err := c.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return entries, nil
}

// EnsureEmbedding returns entry's embedding, computing and persisting it on a miss.
// A cached embedding is returned as is with no provider or store calls. Concurrent
// misses for the same entry ID share one provider call and one write.
func (c *EmbeddingCache) EnsureEmbedding(ctx context.Context, entry *models.CatalogEntry) ([]float32, error) {
	if entry.HasEmbedding() {
		return entry.Embedding, nil
	}
	v, err, _ := c.inflight.Do(entry.ID, func() (interface{}, error) {
		vec, err := c.embedder.Embed(ctx, DescriptiveText(entry))
		if err != nil {
			return nil, fmt.Errorf("embed product %s: %w", entry.ID, err)
		}
		if err := c.store.SetProductEmbedding(ctx, entry.ID, vec); err != nil {
			return nil, fmt.Errorf("store embedding for product %s: %w", entry.ID, err)
		}
		c.logger.Debug("Computed catalog embedding",
			zap.String("product_id", entry.ID),
			zap.Int("dimensions", len(vec)))
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	vec := v.([]float32)
	entry.Embedding = vec
	return vec, nil
}

// EnsureAll embeds every entry that lacks an embedding, up to the configured
// concurrency at a time. It returns how many entries were missing. Entry order is unchanged.
func (c *EmbeddingCache) EnsureAll(ctx context.Context, entries []*models.CatalogEntry) (int, error) {
	var missing []*models.CatalogEntry
	for _, e := range entries {
		if !e.HasEmbedding() {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, e := range missing {
		e := e
		g.Go(func() error {
			_, err := c.EnsureEmbedding(gctx, e)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	c.logger.Info("Catalog embeddings ensured", zap.Int("computed", len(missing)), zap.Int("total", len(entries)))
	return len(missing), nil
}
