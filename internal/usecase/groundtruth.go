package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"rageval/internal/domain"
	"rageval/internal/port"
)

// GroundTruthUseCase builds relevance judgments, either from an external
// human-labeled judgment set or by reranking a larger candidate pool as a
// pseudo-label proxy. The two modes are never mixed within one run.
type GroundTruthUseCase struct {
	index port.VectorIndex

	// pseudo-label mode: retriever with reranking forced on
	pseudo    port.Retriever
	poolK     int
	topN      int
	graded    bool
	threshold float64
	workers   int
}

// NewGroundTruthUseCase creates a ground truth builder. pseudo must have
// reranking wired in; it is only consulted in pseudo-label mode.
func NewGroundTruthUseCase(index port.VectorIndex, pseudo port.Retriever, poolK, topN int, graded bool, threshold float64, workers int) *GroundTruthUseCase {
	if poolK <= 0 {
		poolK = 30
	}
	if topN <= 0 {
		topN = 5
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	return &GroundTruthUseCase{
		index:     index,
		pseudo:    pseudo,
		poolK:     poolK,
		topN:      topN,
		graded:    graded,
		threshold: threshold,
		workers:   workers,
	}
}

// humanJudgment is the on-disk shape of one external label.
type humanJudgment struct {
	ChunkID string  `json:"chunk_id"`
	Grade   float64 `json:"grade"`
}

// BuildHuman loads ground truth verbatim from an external judgment file
// (queryID -> [{chunk_id, grade}]). Every referenced chunk must exist in
// the corpus; an unknown chunk fails the whole load so nothing partial is
// ever persisted. A later judgment for the same (query, chunk) pair
// overwrites the earlier one.
func (u *GroundTruthUseCase) BuildHuman(path string) (*domain.GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read judgment file: %w", err)
	}

	var raw map[string][]humanJudgment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid judgment file: %w", err)
	}

	// Validate every chunk reference before building anything.
	for qid, labels := range raw {
		for _, label := range labels {
			if !u.index.Has(label.ChunkID) {
				return nil, fmt.Errorf("query %q references chunk %q: %w", qid, label.ChunkID, domain.ErrUnknownChunk)
			}
		}
	}

	gt := &domain.GroundTruth{
		Mode:      domain.ModeHuman,
		Judgments: make(map[string][]domain.RelevanceJudgment, len(raw)),
	}
	for qid, labels := range raw {
		var judgments []domain.RelevanceJudgment
		position := make(map[string]int)
		for _, label := range labels {
			if i, seen := position[label.ChunkID]; seen {
				judgments[i].Grade = label.Grade
				continue
			}
			position[label.ChunkID] = len(judgments)
			judgments = append(judgments, domain.RelevanceJudgment{
				QueryID: qid,
				ChunkID: label.ChunkID,
				Grade:   label.Grade,
			})
		}
		gt.Judgments[qid] = judgments
	}
	return gt, nil
}

// BuildPseudo bootstraps ground truth when no human labels exist: each
// query retrieves a pool larger than the final K with reranking forced on,
// and the reranker's top-N become the judgments. Weaker evidence than
// human labels; the mode tag travels with the artifact so callers can tell
// them apart.
func (u *GroundTruthUseCase) BuildPseudo(queries []domain.Query, progress func(int)) (*domain.GroundTruth, []string, error) {
	gt := &domain.GroundTruth{
		Mode:      domain.ModePseudo,
		Judgments: make(map[string][]domain.RelevanceJudgment, len(queries)),
	}

	var warnings []string
	jobs := make(chan domain.Query)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < u.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range jobs {
				judgments, err := u.pseudoLabel(q)
				mu.Lock()
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("query %s: %v", q.ID, err))
				} else if len(judgments) > 0 {
					gt.Judgments[q.ID] = judgments
				}
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

	sort.Strings(warnings)
	return gt, warnings, nil
}

func (u *GroundTruthUseCase) pseudoLabel(q domain.Query) ([]domain.RelevanceJudgment, error) {
	ranked, err := u.pseudo.Retrieve(q, u.poolK)
	if err != nil {
		return nil, err
	}

	topN := u.topN
	if topN > len(ranked) {
		topN = len(ranked)
	}

	var judgments []domain.RelevanceJudgment
	for _, r := range ranked[:topN] {
		grade := 1.0
		if u.graded {
			if r.Score <= 0 {
				continue // zero gain, would still count as relevant
			}
			grade = r.Score
		} else if r.Score < u.threshold {
			continue // binary cutoff
		}
		judgments = append(judgments, domain.RelevanceJudgment{
			QueryID: q.ID,
			ChunkID: r.ChunkID,
			Grade:   grade,
		})
	}
	return judgments, nil
}
