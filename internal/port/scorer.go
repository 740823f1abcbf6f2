package port

// RelevanceScorer scores a single query-document pair; higher is more
// relevant. Used by the reranker and by pseudo-label ground truth. May fail
// per call; callers apply their own retry and degradation policy.
type RelevanceScorer interface {
	Score(query, chunkText string) (float64, error)

	// ModelName returns the name of the scoring model.
	ModelName() string
}
