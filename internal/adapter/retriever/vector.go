package retriever

import (
	"fmt"

	"rageval/internal/domain"
	"rageval/internal/port"
)

// VectorRetriever answers queries directly from the vector index. The query
// must carry a pre-computed vector; embedding happens upstream.
type VectorRetriever struct {
	index port.VectorIndex
}

// NewVectorRetriever creates a retriever over the given index.
func NewVectorRetriever(index port.VectorIndex) *VectorRetriever {
	return &VectorRetriever{index: index}
}

// Retrieve returns the top-k chunks for the query.
func (r *VectorRetriever) Retrieve(query domain.Query, k int) ([]domain.ScoredResult, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("query %q has no embedding vector", query.ID)
	}

	results, err := r.index.Search(query.Vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
