package embedding

import (
	"container/list"
	"context"
	"sync"
)

// CachedEmbedder memoizes embeddings of repeated texts (detection search texts
// recur across photos) in a bounded LRU in front of another Embedder.
type CachedEmbedder struct {
	next     Embedder
	capacity int

	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List
}

type cacheItem struct {
	text string
	vec  []float32
}

// NewCachedEmbedder wraps next with an LRU of the given capacity.
func NewCachedEmbedder(next Embedder, capacity int) *CachedEmbedder {
	if capacity <= 0 {
		capacity = 1
	}
	return &CachedEmbedder{
		next:     next,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Embed returns the cached vector for text, calling the wrapped embedder on a miss.
// Failed calls are not cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.get(text); ok {
		return vec, nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.put(text, vec)
	return vec, nil
}

// EmbedBatch embeds each text through the cache.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, c, texts)
}

// Dimensions returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.next.Dimensions()
}

// Close closes the wrapped embedder.
func (c *CachedEmbedder) Close() error {
	return c.next.Close()
}

// Len returns the number of cached texts.
func (c *CachedEmbedder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *CachedEmbedder) get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[text]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheItem).vec, true
}

func (c *CachedEmbedder) put(text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[text]; ok {
		elem.Value.(*cacheItem).vec = vec
		c.lru.MoveToFront(elem)
		return
	}
	c.items[text] = c.lru.PushFront(&cacheItem{text: text, vec: vec})
	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem).text)
	}
}
