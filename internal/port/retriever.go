package port

import "rageval/internal/domain"

// Retriever returns the top-k chunks for a query with a pre-computed
// vector. Must be deterministic for identical inputs.
type Retriever interface {
	Retrieve(query domain.Query, k int) ([]domain.ScoredResult, error)
}
