package cache

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
)

type countingEmbedder struct {
	calls int64
}

func (e *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	atomic.AddInt64(&e.calls, 1)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 0}
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return 2 }
func (e *countingEmbedder) ModelName() string { return "counting" }

func TestCachedEmbedderHits(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, NewEmbedCache(16))

	first, err := cached.Embed([]string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, err := cached.Embed([]string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("cached result differs from the original")
	}
	if got := atomic.LoadInt64(&inner.calls); got != 1 {
		t.Errorf("inner embedder called %d times, want 1", got)
	}
}

func TestCachedEmbedderPartialMiss(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, NewEmbedCache(16))

	if _, err := cached.Embed([]string{"alpha"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	vectors, err := cached.Embed([]string{"alpha", "gamma"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if len(vectors) != 2 || vectors[0] == nil || vectors[1] == nil {
		t.Fatalf("vectors = %v, want both filled", vectors)
	}
	// Second call only embeds the miss.
	if got := atomic.LoadInt64(&inner.calls); got != 2 {
		t.Errorf("inner embedder called %d times, want 2", got)
	}
}

func TestEmbedCacheEviction(t *testing.T) {
	c := NewEmbedCache(2)

	for i := 0; i < 3; i++ {
		c.put(fmt.Sprintf("text-%d", i), []float32{float32(i)})
	}

	if c.Size() != 2 {
		t.Errorf("Size() = %d, want capacity 2", c.Size())
	}
	if _, hit := c.get("text-0"); hit {
		t.Error("oldest entry survived eviction")
	}
	if _, hit := c.get("text-2"); !hit {
		t.Error("newest entry evicted")
	}
}

func TestEmbedCacheLRUTouch(t *testing.T) {
	c := NewEmbedCache(2)
	c.put("a", []float32{1})
	c.put("b", []float32{2})

	// Touching a makes b the eviction candidate.
	if _, hit := c.get("a"); !hit {
		t.Fatal("expected hit for a")
	}
	c.put("c", []float32{3})

	if _, hit := c.get("a"); !hit {
		t.Error("recently used entry evicted")
	}
	if _, hit := c.get("b"); hit {
		t.Error("least recently used entry survived")
	}
}
