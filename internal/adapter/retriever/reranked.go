package retriever

import (
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"rageval/internal/domain"
	"rageval/internal/port"
)

// RerankedRetriever wraps a retriever and re-scores its candidate pool with
// a finer-grained relevance model. Reranking is a pure re-ordering: it
// never introduces chunks absent from the pool and never drops a candidate.
type RerankedRetriever struct {
	base       port.Retriever
	index      port.VectorIndex
	scorer     port.RelevanceScorer
	poolK      int // candidate pool to rerank, should be > final k
	maxRetries uint64
}

// NewRerankedRetriever creates a reranked retriever. poolK <= 0 defaults to
// 50; maxRetries bounds the per-candidate scoring retry budget.
func NewRerankedRetriever(base port.Retriever, index port.VectorIndex, scorer port.RelevanceScorer, poolK, maxRetries int) *RerankedRetriever {
	if poolK <= 0 {
		poolK = 50
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RerankedRetriever{
		base:       base,
		index:      index,
		scorer:     scorer,
		poolK:      poolK,
		maxRetries: uint64(maxRetries),
	}
}

// Retrieve pulls a candidate pool, reranks it, and truncates to k.
func (r *RerankedRetriever) Retrieve(query domain.Query, k int) ([]domain.ScoredResult, error) {
	poolK := r.poolK
	if k > poolK {
		poolK = k
	}

	candidates, err := r.base.Retrieve(query, poolK)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	reranked := r.Rerank(query, candidates)
	if len(reranked) > k {
		reranked = reranked[:k]
	}
	return reranked, nil
}

// Rerank re-scores the candidates and re-sorts them by the new score,
// descending, ties by ascending chunk ID. A scoring failure for an
// individual candidate keeps that candidate's original retrieval score
// rather than aborting the whole rerank.
func (r *RerankedRetriever) Rerank(query domain.Query, candidates []domain.ScoredResult) []domain.ScoredResult {
	reranked := make([]domain.ScoredResult, len(candidates))
	copy(reranked, candidates)

	for i := range reranked {
		chunk, err := r.index.Chunk(reranked[i].ChunkID)
		if err != nil {
			continue
		}
		score, err := r.score(query.Text, chunk.Text)
		if err != nil {
			continue
		}
		reranked[i].Score = score
	}

	sort.Slice(reranked, func(i, j int) bool {
		if reranked[i].Score != reranked[j].Score {
			return reranked[i].Score > reranked[j].Score
		}
		return reranked[i].ChunkID < reranked[j].ChunkID
	})
	for i := range reranked {
		reranked[i].Rank = i
	}
	return reranked
}

// score calls the scoring collaborator with a bounded retry budget.
func (r *RerankedRetriever) score(query, text string) (float64, error) {
	var score float64

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(func() error {
		s, err := r.scorer.Score(query, text)
		if err != nil {
			return err
		}
		score = s
		return nil
	}, backoff.WithMaxRetries(b, r.maxRetries))
	if err != nil {
		return 0, err
	}
	return score, nil
}
