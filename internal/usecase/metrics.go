package usecase

import (
	"math"
	"sort"
)

// Rank-aware retrieval metrics. relevant maps chunk ID to relevance grade
// (1 for binary judgments); ranked is the retrieved chunk ID list in rank
// order.

// PrecisionAtK is the fraction of the top-k ranked chunks present in the
// ground truth.
func PrecisionAtK(relevant map[string]float64, ranked []string, k int) float64 {
	if k <= 0 {
		return 0
	}
	hits := 0
	for _, id := range truncate(ranked, k) {
		if _, ok := relevant[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// RecallAtK is the fraction of all relevant chunks captured in the top-k.
// Callers must not pass empty ground truth; such queries are excluded from
// evaluation upstream.
func RecallAtK(relevant map[string]float64, ranked []string, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	hits := 0
	for _, id := range truncate(ranked, k) {
		if _, ok := relevant[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// ReciprocalRank is 1/rank of the first relevant chunk (1-based), or 0 when
// no relevant chunk appears in the ranked list.
func ReciprocalRank(relevant map[string]float64, ranked []string) float64 {
	for i, id := range ranked {
		if _, ok := relevant[id]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// NDCGAtK is DCG@k normalized by the DCG of the ideal ordering: ground
// truth grades sorted descending, truncated to k. Gain is the relevance
// grade, 0 for chunks absent from the ground truth; the discount for the
// 0-based position i is log2(i+2).
func NDCGAtK(relevant map[string]float64, ranked []string, k int) float64 {
	var dcg float64
	for i, id := range truncate(ranked, k) {
		if grade, ok := relevant[id]; ok {
			dcg += grade / math.Log2(float64(i)+2)
		}
	}

	grades := make([]float64, 0, len(relevant))
	for _, grade := range relevant {
		grades = append(grades, grade)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(grades)))

	var idcg float64
	for i, grade := range truncateFloats(grades, k) {
		idcg += grade / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func truncate(ids []string, k int) []string {
	if k < len(ids) {
		return ids[:k]
	}
	return ids
}

func truncateFloats(vals []float64, k int) []float64 {
	if k < len(vals) {
		return vals[:k]
	}
	return vals
}
