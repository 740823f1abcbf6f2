package cli

import (
	"fmt"
	"os"

	"rageval/config"
	"rageval/internal/adapter/cache"
	"rageval/internal/adapter/embedding"
	"rageval/internal/adapter/llm"
	"rageval/internal/adapter/retriever"
	"rageval/internal/adapter/scorer"
	"rageval/internal/adapter/store"
	"rageval/internal/port"
)

// openIndex opens the corpus vector index, failing if it was never built.
func openIndex() (*store.BoltVectorIndex, error) {
	dbPath := config.IndexDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no index found. Run 'rageval index' first")
	}
	return store.NewBoltVectorIndex(dbPath, cfg.Corpus.Dimension)
}

func newRunStore() *store.FSRunStore {
	return store.NewFSRunStore(config.RunsDir(rootDir, cfg))
}

// newEmbedder builds the configured embedding client wrapped in the embed
// cache so repeated stages reuse query vectors.
func newEmbedder() (port.Embedder, error) {
	var (
		embedder port.Embedder
		err      error
	)

	switch cfg.Embedding.Provider {
	case "openai":
		embedder, err = embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BatchSize)
	case "ollama":
		embedder, err = embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.BatchSize)
	case "mock":
		embedder = embedding.NewMockEmbedder(cfg.Corpus.Dimension)
	default:
		if cfg.Embedding.BaseURL != "" {
			embedder, err = embedding.NewOpenAICompatibleEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.BatchSize)
		} else {
			err = fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
		}
	}
	if err != nil {
		return nil, err
	}

	return cache.NewCachedEmbedder(embedder, cache.NewEmbedCache(cfg.Embedding.CacheSize)), nil
}

func newScorer() (port.RelevanceScorer, error) {
	switch cfg.Scoring.Provider {
	case "cohere":
		return scorer.NewCohereScorer(cfg.Scoring.APIKeyEnv, cfg.Scoring.Model)
	case "overlap":
		return scorer.NewTermOverlapScorer(), nil
	default:
		return nil, fmt.Errorf("unknown scoring provider: %s", cfg.Scoring.Provider)
	}
}

// newRetriever builds the retrieval chain: plain vector search, optionally
// wrapped in the reranker over a larger candidate pool.
func newRetriever(index port.VectorIndex, rerank bool, poolK int) (port.Retriever, error) {
	base := retriever.NewVectorRetriever(index)
	if !rerank {
		return base, nil
	}

	sc, err := newScorer()
	if err != nil {
		return nil, err
	}
	return retriever.NewRerankedRetriever(base, index, sc, poolK, cfg.Scoring.MaxRetries), nil
}

func newGenerator() (port.AnswerGenerator, error) {
	switch cfg.Answers.Provider {
	case "openai":
		return llm.NewOpenAIGenerator(cfg.Answers.APIKeyEnv, cfg.Answers.Model, cfg.Answers.BaseURL)
	case "none", "":
		return nil, fmt.Errorf("no answer generation provider configured")
	default:
		return nil, fmt.Errorf("unknown answer provider: %s", cfg.Answers.Provider)
	}
}
