package store

import (
	"fmt"
	"sync"

	"rageval/internal/domain"
)

// MemoryVectorIndex is an in-memory port.VectorIndex with the same search
// semantics as BoltVectorIndex. Used by tests and programmatic pipelines
// that do not need persistence.
type MemoryVectorIndex struct {
	mu        sync.RWMutex
	dimension int
	chunks    map[string]domain.Chunk
}

// NewMemoryVectorIndex creates an in-memory index. A dimension of 0 adopts
// the dimension of the first chunk added.
func NewMemoryVectorIndex(dimension int) *MemoryVectorIndex {
	return &MemoryVectorIndex{
		dimension: dimension,
		chunks:    make(map[string]domain.Chunk),
	}
}

func (s *MemoryVectorIndex) Add(chunk domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chunks[chunk.ID]; exists {
		return fmt.Errorf("chunk %q: %w", chunk.ID, domain.ErrDuplicateChunk)
	}
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("chunk %q: empty vector: %w", chunk.ID, domain.ErrDimensionMismatch)
	}
	if s.dimension == 0 {
		s.dimension = len(chunk.Vector)
	}
	if len(chunk.Vector) != s.dimension {
		return fmt.Errorf("chunk %q: expected dimension %d, got %d: %w",
			chunk.ID, s.dimension, len(chunk.Vector), domain.ErrDimensionMismatch)
	}

	chunk.Vector = normalize(chunk.Vector)
	s.chunks[chunk.ID] = chunk
	return nil
}

func (s *MemoryVectorIndex) Search(vector []float32, k int) ([]domain.ScoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchChunks(s.chunks, s.dimension, vector, k)
}

func (s *MemoryVectorIndex) Chunk(id string) (domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[id]
	if !ok {
		return domain.Chunk{}, fmt.Errorf("chunk %q: %w", id, domain.ErrUnknownChunk)
	}
	return chunk, nil
}

func (s *MemoryVectorIndex) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[id]
	return ok
}

func (s *MemoryVectorIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *MemoryVectorIndex) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func (s *MemoryVectorIndex) Close() error {
	return nil
}
