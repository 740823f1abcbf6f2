package usecase

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"rageval/internal/domain"
)

// countingEmbedder embeds every text to a fixed vector; fails when broken.
type countingEmbedder struct {
	calls  int64
	broken bool
}

func (e *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	atomic.AddInt64(&e.calls, 1)
	if e.broken {
		return nil, fmt.Errorf("connection refused")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return 2 }
func (e *countingEmbedder) ModelName() string { return "counting" }

// echoRetriever returns one result per query; fails for queries in errs.
type echoRetriever struct {
	errs map[string]error
}

func (r *echoRetriever) Retrieve(query domain.Query, k int) ([]domain.ScoredResult, error) {
	if err := r.errs[query.ID]; err != nil {
		return nil, err
	}
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("query %q has no embedding vector", query.ID)
	}
	return []domain.ScoredResult{{ChunkID: "hit-" + query.ID, Score: 1, Rank: 0}}, nil
}

func TestRetrieveRun(t *testing.T) {
	embedder := &countingEmbedder{}
	uc := NewRetrieveUseCase(&echoRetriever{}, embedder, 5, 4, false, 0)

	queries := []domain.Query{
		{ID: "q1", Text: "first", Vector: []float32{0, 1}},
		{ID: "q2", Text: "second"}, // embedded on the fly
		{ID: "q3", Text: "third", Vector: []float32{1, 1}},
	}

	var progressed int64
	results, err := uc.Run(queries, func(n int) { atomic.AddInt64(&progressed, int64(n)) })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if results.TopK != 5 {
		t.Errorf("TopK = %d, want 5", results.TopK)
	}
	if len(results.Queries) != 3 {
		t.Fatalf("got %d query records, want 3", len(results.Queries))
	}
	for qid, qr := range results.Queries {
		if qr.Error != "" {
			t.Errorf("query %s failed: %s", qid, qr.Error)
		}
		if len(qr.Results) != 1 || qr.Results[0].ChunkID != "hit-"+qid {
			t.Errorf("query %s results = %v", qid, qr.Results)
		}
		if len(qr.Query.Vector) != 0 {
			t.Errorf("query %s record carries a vector; records must not", qid)
		}
	}

	if got := atomic.LoadInt64(&embedder.calls); got != 1 {
		t.Errorf("embedder called %d times, want 1 (only the vectorless query)", got)
	}
	if progressed != 3 {
		t.Errorf("progress total = %d, want 3", progressed)
	}
}

func TestRetrieveRunEmbeddingFailureIsolated(t *testing.T) {
	embedder := &countingEmbedder{broken: true}
	uc := NewRetrieveUseCase(&echoRetriever{}, embedder, 5, 2, false, 0)

	queries := []domain.Query{
		{ID: "q1", Text: "has vector", Vector: []float32{1, 0}},
		{ID: "q2", Text: "needs embedding"},
	}

	results, err := uc.Run(queries, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if qr := results.Queries["q1"]; qr.Error != "" {
		t.Errorf("q1 failed: %s; one query's embedding outage must not spread", qr.Error)
	}
	qr := results.Queries["q2"]
	if qr.Error == "" {
		t.Fatal("q2 must carry the embedding failure")
	}
	if !strings.Contains(qr.Error, domain.ErrEmbeddingUnavailable.Error()) {
		t.Errorf("q2 error = %q, want it tagged as embedding unavailable", qr.Error)
	}
	if len(qr.Results) != 0 {
		t.Errorf("failed query carries results: %v", qr.Results)
	}
}

func TestRetrieveRunRetrieverFailureIsolated(t *testing.T) {
	ret := &echoRetriever{errs: map[string]error{"bad": fmt.Errorf("index unavailable")}}
	uc := NewRetrieveUseCase(ret, &countingEmbedder{}, 3, 1, false, 0)

	queries := []domain.Query{
		{ID: "ok", Text: "fine", Vector: []float32{1, 0}},
		{ID: "bad", Text: "broken", Vector: []float32{0, 1}},
	}

	results, err := uc.Run(queries, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if qr := results.Queries["ok"]; qr.Error != "" || len(qr.Results) != 1 {
		t.Errorf("ok record = %+v, want one result and no error", qr)
	}
	if qr := results.Queries["bad"]; qr.Error != "index unavailable" {
		t.Errorf("bad record error = %q, want the retriever error", qr.Error)
	}
}

// flakyEmbedder fails the first failures calls, then succeeds.
type flakyEmbedder struct {
	failures int
	calls    int64
}

func (e *flakyEmbedder) Embed(texts []string) ([][]float32, error) {
	n := atomic.AddInt64(&e.calls, 1)
	if n <= int64(e.failures) {
		return nil, fmt.Errorf("transient failure %d", n)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (e *flakyEmbedder) Dimension() int    { return 2 }
func (e *flakyEmbedder) ModelName() string { return "flaky" }

func TestEmbedTextRetries(t *testing.T) {
	embedder := &flakyEmbedder{failures: 1}

	vector, err := EmbedText(embedder, "some query", 2)
	if err != nil {
		t.Fatalf("EmbedText() error = %v, want recovery within the retry budget", err)
	}
	if len(vector) != 2 {
		t.Errorf("vector = %v, want length 2", vector)
	}
	if got := atomic.LoadInt64(&embedder.calls); got != 2 {
		t.Errorf("embedder called %d times, want 2", got)
	}
}

func TestEmbedTextBudgetExhausted(t *testing.T) {
	embedder := &flakyEmbedder{failures: 10}

	if _, err := EmbedText(embedder, "some query", 1); err == nil {
		t.Error("EmbedText() must fail once the retry budget is exhausted")
	}
	if got := atomic.LoadInt64(&embedder.calls); got != 2 {
		t.Errorf("embedder called %d times, want the initial attempt plus 1 retry", got)
	}
}

func TestEmbedTextNoEmbedder(t *testing.T) {
	if _, err := EmbedText(nil, "some query", 0); err == nil {
		t.Error("EmbedText() without an embedder must error")
	}
}

func TestRetrieveRunNoEmbedder(t *testing.T) {
	uc := NewRetrieveUseCase(&echoRetriever{}, nil, 3, 1, false, 0)

	results, err := uc.Run([]domain.Query{{ID: "q1", Text: "vectorless"}}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	qr := results.Queries["q1"]
	if qr.Error == "" {
		t.Error("vectorless query without an embedder must fail")
	}
}
