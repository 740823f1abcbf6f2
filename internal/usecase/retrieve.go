package usecase

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"rageval/internal/domain"
	"rageval/internal/port"
)

// RetrieveUseCase runs batch retrieval over a query set. Per-query work is
// independent and fans out over a bounded worker pool; a failing query is
// recorded in the stage record and never aborts the batch.
type RetrieveUseCase struct {
	retriever  port.Retriever
	embedder   port.Embedder
	topK       int
	workers    int
	reranked   bool
	maxRetries uint64
}

// NewRetrieveUseCase creates a batch retrieval use case. workers <= 0
// defaults to NumCPU capped at 8.
func NewRetrieveUseCase(retriever port.Retriever, embedder port.Embedder, topK, workers int, reranked bool, maxRetries int) *RetrieveUseCase {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetrieveUseCase{
		retriever:  retriever,
		embedder:   embedder,
		topK:       topK,
		workers:    workers,
		reranked:   reranked,
		maxRetries: uint64(maxRetries),
	}
}

// Run retrieves the top-K chunks for every query. The returned record does
// not carry query vectors; they can be large and are reproducible from the
// query text.
func (u *RetrieveUseCase) Run(queries []domain.Query, progress func(int)) (*domain.RetrievalResults, error) {
	results := &domain.RetrievalResults{
		TopK:     u.topK,
		Reranked: u.reranked,
		Queries:  make(map[string]domain.QueryRetrieval, len(queries)),
	}

	jobs := make(chan domain.Query)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < u.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range jobs {
				qr := u.retrieveOne(q)
				mu.Lock()
				results.Queries[q.ID] = qr
				mu.Unlock()
				if progress != nil {
					progress(1)
				}
			}
		}()
	}

	for _, q := range queries {
		jobs <- q
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

func (u *RetrieveUseCase) retrieveOne(q domain.Query) domain.QueryRetrieval {
	stored := domain.Query{ID: q.ID, Text: q.Text}

	if len(q.Vector) == 0 {
		vector, err := u.embedQuery(q.Text)
		if err != nil {
			return domain.QueryRetrieval{
				Query: stored,
				Error: fmt.Sprintf("%v: %v", domain.ErrEmbeddingUnavailable, err),
			}
		}
		q.Vector = vector
	}

	ranked, err := u.retriever.Retrieve(q, u.topK)
	if err != nil {
		return domain.QueryRetrieval{Query: stored, Error: err.Error()}
	}
	return domain.QueryRetrieval{Query: stored, Results: ranked}
}

func (u *RetrieveUseCase) embedQuery(text string) ([]float32, error) {
	return EmbedText(u.embedder, text, u.maxRetries)
}

// EmbedText calls the embedding service for a single text with a bounded
// retry budget. Every embedding call site goes through here so the retry
// policy stays uniform.
func EmbedText(embedder port.Embedder, text string, maxRetries uint64) ([]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	var vector []float32

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = time.Minute

	err := backoff.Retry(func() error {
		vectors, err := embedder.Embed([]string{text})
		if err != nil {
			return err
		}
		if len(vectors) == 0 || len(vectors[0]) == 0 {
			return fmt.Errorf("embedding returned empty result")
		}
		vector = vectors[0]
		return nil
	}, backoff.WithMaxRetries(b, maxRetries))
	if err != nil {
		return nil, err
	}
	return vector, nil
}
