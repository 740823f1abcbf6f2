package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"rageval/internal/domain"
	"rageval/internal/port"
)

// AnswerUseCase hands each query and its top-ranked chunk texts to the
// external answer generation service and collects the answers for the run.
// The core never judges answer quality.
type AnswerUseCase struct {
	index     port.VectorIndex
	generator port.AnswerGenerator
	topN      int
}

// NewAnswerUseCase creates an answer generation use case.
func NewAnswerUseCase(index port.VectorIndex, generator port.AnswerGenerator, topN int) *AnswerUseCase {
	if topN <= 0 {
		topN = 5
	}
	return &AnswerUseCase{
		index:     index,
		generator: generator,
		topN:      topN,
	}
}

// Generate produces one answer per successfully retrieved query. A failing
// generation is recorded on that query and the batch continues.
func (u *AnswerUseCase) Generate(results *domain.RetrievalResults, progress func(int)) map[string]domain.GeneratedAnswer {
	answers := make(map[string]domain.GeneratedAnswer, len(results.Queries))

	qids := make([]string, 0, len(results.Queries))
	for qid := range results.Queries {
		qids = append(qids, qid)
	}
	sort.Strings(qids)

	for _, qid := range qids {
		qr := results.Queries[qid]
		if progress != nil {
			progress(1)
		}
		if qr.Error != "" || len(qr.Results) == 0 {
			continue
		}

		contexts, ids := u.contexts(qr.Results)
		answer, err := u.generator.Generate(qr.Query.Text, contexts)
		ga := domain.GeneratedAnswer{
			Query:    qr.Query.Text,
			UsedDocs: ids,
		}
		if err != nil {
			ga.Error = err.Error()
		} else {
			ga.Answer = answer
		}
		answers[qid] = ga
	}
	return answers
}

// contexts returns the top-N chunk texts for the generator alongside the
// chunk IDs recorded in the run artifact.
func (u *AnswerUseCase) contexts(results []domain.ScoredResult) ([]string, []string) {
	topN := u.topN
	if topN > len(results) {
		topN = len(results)
	}

	var contexts, ids []string
	for _, r := range results[:topN] {
		chunk, err := u.index.Chunk(r.ChunkID)
		if err != nil || chunk.Text == "" {
			continue
		}
		contexts = append(contexts, chunk.Text)
		ids = append(ids, r.ChunkID)
	}
	return contexts, ids
}

// LoadAnswerScores reads externally produced answer quality scores so they
// can be attached to the run verbatim.
func LoadAnswerScores(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer scores: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("answer scores file is not valid JSON")
	}
	return json.RawMessage(data), nil
}
