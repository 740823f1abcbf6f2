package port

import "rageval/internal/domain"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex holds chunk identifiers and their embedding vectors and
// answers nearest-neighbor queries by cosine similarity. Append-only during
// a run.
type VectorIndex interface {
	// Add registers a chunk's identifier, text and vector.
	Add(chunk domain.Chunk) error

	// Search returns the k chunks most similar to the query vector, ordered
	// by descending similarity, ties broken by ascending chunk ID. If k
	// exceeds the corpus size, all chunks are returned.
	Search(vector []float32, k int) ([]domain.ScoredResult, error)

	// Chunk returns a chunk by its identifier.
	Chunk(id string) (domain.Chunk, error)

	// Has reports whether a chunk identifier exists in the corpus.
	Has(id string) bool

	// Count returns the number of indexed chunks.
	Count() int

	// Dimension returns the vector dimension shared by the corpus.
	Dimension() int

	Close() error
}
