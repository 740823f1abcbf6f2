package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"
	"rageval/internal/domain"
)

var bucketChunks = []byte("chunks")

// BoltVectorIndex implements port.VectorIndex using BoltDB for persistence.
// Vectors are normalized to unit length on insert so cosine similarity
// reduces to a dot product. Brute-force search; fine for evaluation-sized
// corpora.
type BoltVectorIndex struct {
	db        *bbolt.DB
	dimension int
	mu        sync.RWMutex
	// In-memory mirror for fast search
	chunks map[string]domain.Chunk
}

type storedChunk struct {
	DocID  string    `json:"d,omitempty"`
	Text   string    `json:"t"`
	Vector []float32 `json:"v"`
}

// NewBoltVectorIndex opens (or creates) a vector index at path. A dimension
// of 0 adopts the dimension of the first chunk added or loaded.
func NewBoltVectorIndex(path string, dimension int) (*BoltVectorIndex, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chunks bucket: %w", err)
	}

	idx := &BoltVectorIndex{
		db:        db,
		dimension: dimension,
		chunks:    make(map[string]domain.Chunk),
	}

	if err := idx.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load index: %w", err)
	}

	return idx, nil
}

// load mirrors all persisted chunks into memory.
func (s *BoltVectorIndex) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				// A corrupted entry silently dropped would change rankings
				// between runs; refuse to open instead.
				return fmt.Errorf("chunk %q: corrupted index entry: %w", string(k), err)
			}
			if s.dimension == 0 {
				s.dimension = len(stored.Vector)
			}
			s.chunks[string(k)] = domain.Chunk{
				ID:     string(k),
				DocID:  stored.DocID,
				Text:   stored.Text,
				Vector: stored.Vector,
			}
			return nil
		})
	})
}

// Add registers a chunk. The stored vector is a normalized copy; the
// caller's slice is not modified.
func (s *BoltVectorIndex) Add(chunk domain.Chunk) error {
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

	normalized := normalize(chunk.Vector)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return fmt.Errorf("chunks bucket not found")
		}

		data, err := json.Marshal(storedChunk{
			DocID:  chunk.DocID,
			Text:   chunk.Text,
			Vector: normalized,
		})
		if err != nil {
			return err
		}
		return b.Put([]byte(chunk.ID), data)
	})
	if err != nil {
		return err
	}

	chunk.Vector = normalized
	s.chunks[chunk.ID] = chunk
	return nil
}

// Search finds the k most similar chunks to the query vector.
func (s *BoltVectorIndex) Search(vector []float32, k int) ([]domain.ScoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchChunks(s.chunks, s.dimension, vector, k)
}

// Chunk returns a chunk by ID.
func (s *BoltVectorIndex) Chunk(id string) (domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[id]
	if !ok {
		return domain.Chunk{}, fmt.Errorf("chunk %q: %w", id, domain.ErrUnknownChunk)
	}
	return chunk, nil
}

// Has reports whether a chunk ID exists.
func (s *BoltVectorIndex) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[id]
	return ok
}

// Count returns the number of indexed chunks.
func (s *BoltVectorIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Dimension returns the corpus vector dimension.
func (s *BoltVectorIndex) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func (s *BoltVectorIndex) Close() error {
	return s.db.Close()
}

// searchChunks ranks all chunks against the query vector. Shared by the
// bolt-backed and in-memory indexes.
func searchChunks(chunks map[string]domain.Chunk, dimension int, vector []float32, k int) ([]domain.ScoredResult, error) {
	if len(vector) != dimension {
		return nil, fmt.Errorf("query: expected dimension %d, got %d: %w",
			dimension, len(vector), domain.ErrDimensionMismatch)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	query := normalize(vector)

	scores := make([]domain.ScoredResult, 0, len(chunks))
	for id, chunk := range chunks {
		scores = append(scores, domain.ScoredResult{
			ChunkID: id,
			Score:   dot(query, chunk.Vector),
		})
	}

	// Descending similarity, ties by ascending chunk ID for reproducible
	// ordering.
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ChunkID < scores[j].ChunkID
	})

	if k > len(scores) {
		k = len(scores)
	}
	scores = scores[:k]
	for i := range scores {
		scores[i].Rank = i
	}
	return scores, nil
}

// normalize returns a unit-length copy of v. A zero vector is returned
// unchanged.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the inner product; on unit vectors this is cosine
// similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
