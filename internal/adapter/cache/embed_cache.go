package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"rageval/internal/port"
)

// EmbedCache memoizes text embeddings. Embedding is deterministic for
// identical text and model version, so entries never expire; eviction is
// LRU by insertion order.
type EmbedCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	order   []string
	maxSize int
}

func NewEmbedCache(maxSize int) *EmbedCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &EmbedCache{
		entries: make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:16])
}

func (c *EmbedCache) get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(text)
	vector, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	c.moveToEnd(key)
	return vector, true
}

func (c *EmbedCache) put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(text)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = vector
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = vector
	c.order = append(c.order, key)
}

func (c *EmbedCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *EmbedCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *EmbedCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

// CachedEmbedder wraps an embedder with an EmbedCache. Repeated pipeline
// stages embedding the same query text hit the cache instead of the
// service.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    *EmbedCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *EmbedCache) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
	}
}

func (e *CachedEmbedder) Embed(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if v, hit := e.cache.get(text); hit {
			vectors[i] = v
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		embedded, err := e.embedder.Embed(missTexts)
		if err != nil {
			return nil, err
		}
		for j, v := range embedded {
			vectors[missIdx[j]] = v
			e.cache.put(missTexts[j], v)
		}
	}

	return vectors, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.embedder.ModelName()
}
