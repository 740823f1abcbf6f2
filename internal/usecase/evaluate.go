package usecase

import (
	"fmt"
	"sort"

	"rageval/internal/domain"
)

// EvaluateUseCase scores a ranked result record against ground truth.
type EvaluateUseCase struct {
	k int
}

// NewEvaluateUseCase creates a metrics engine for the given cutoff.
func NewEvaluateUseCase(k int) *EvaluateUseCase {
	return &EvaluateUseCase{k: k}
}

// Evaluate computes Precision@K, Recall@K, MRR and NDCG@K per query plus
// the corpus-level mean. The cutoff must match the K that produced the
// ranked lists; a mismatch is a caller error, not silently tolerated.
// Queries with empty ground truth are excluded from the aggregate with a
// recorded warning; failed queries are flagged and counted separately.
func (u *EvaluateUseCase) Evaluate(results *domain.RetrievalResults, gt *domain.GroundTruth) (*domain.MetricReport, error) {
	if results.TopK != u.k {
		return nil, fmt.Errorf("ranked lists were produced with k=%d, evaluation requested k=%d: %w",
			results.TopK, u.k, domain.ErrInconsistentK)
	}

	report := &domain.MetricReport{
		K:               u.k,
		GroundTruthMode: gt.Mode,
		PerQuery:        make(map[string]domain.QueryMetrics),
		Failed:          make(map[string]string),
	}

	// Sorted query order keeps warnings and accumulation deterministic.
	qids := make([]string, 0, len(results.Queries))
	for qid := range results.Queries {
		qids = append(qids, qid)
	}
	sort.Strings(qids)

	var sum domain.QueryMetrics
	for _, qid := range qids {
		qr := results.Queries[qid]
		if qr.Error != "" {
			report.Failed[qid] = qr.Error
			continue
		}

		relevant := relevanceMap(gt.Judgments[qid])
		if len(relevant) == 0 {
			report.Skipped = append(report.Skipped, qid)
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("query %s has empty ground truth; excluded from aggregates", qid))
			continue
		}

		ranked := make([]string, len(qr.Results))
		for i, r := range qr.Results {
			ranked[i] = r.ChunkID
		}

		m := domain.QueryMetrics{
			Precision: PrecisionAtK(relevant, ranked, u.k),
			Recall:    RecallAtK(relevant, ranked, u.k),
			MRR:       ReciprocalRank(relevant, ranked),
			NDCG:      NDCGAtK(relevant, ranked, u.k),
		}
		report.PerQuery[qid] = m
		report.Evaluated++

		sum.Precision += m.Precision
		sum.Recall += m.Recall
		sum.MRR += m.MRR
		sum.NDCG += m.NDCG
	}

	if report.Evaluated > 0 {
		n := float64(report.Evaluated)
		report.Aggregate = domain.QueryMetrics{
			Precision: sum.Precision / n,
			Recall:    sum.Recall / n,
			MRR:       sum.MRR / n,
			NDCG:      sum.NDCG / n,
		}
	}

	if len(report.Failed) == 0 {
		report.Failed = nil
	}
	return report, nil
}

// relevanceMap collapses judgments to one grade per chunk; a later
// judgment for the same chunk overwrites the earlier one.
func relevanceMap(judgments []domain.RelevanceJudgment) map[string]float64 {
	if len(judgments) == 0 {
		return nil
	}
	relevant := make(map[string]float64, len(judgments))
	for _, j := range judgments {
		relevant[j.ChunkID] = j.Grade
	}
	return relevant
}
