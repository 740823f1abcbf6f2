package domain

import "time"

// Chunk is a pre-embedded piece of a source document. Chunks are immutable
// once produced by the embedding stage; the whole corpus shares one vector
// dimension.
type Chunk struct {
	ID     string    `json:"chunk_id"`
	DocID  string    `json:"doc_id,omitempty"`
	Text   string    `json:"text"`
	Vector []float32 `json:"embedding"`
}

// Query is one evaluation question with its pre-computed embedding. Vector
// may be empty when the query still has to go through the embedding service.
type Query struct {
	ID     string    `json:"query_id"`
	Text   string    `json:"query"`
	Vector []float32 `json:"embedding,omitempty"`
}

// ScoredResult is one ranked retrieval hit. Rank is 0-based; within a result
// list scores are non-increasing by rank and ties break by ascending chunk ID.
type ScoredResult struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// RelevanceJudgment grades one (query, chunk) pair. Grade is 1 for a binary
// judgment or a graded relevance value. At most one judgment exists per pair;
// a later write for the same pair overwrites the earlier one.
type RelevanceJudgment struct {
	QueryID string  `json:"query_id"`
	ChunkID string  `json:"chunk_id"`
	Grade   float64 `json:"grade"`
}

// GroundTruthMode records how a ground-truth artifact was produced.
type GroundTruthMode string

const (
	ModeHuman  GroundTruthMode = "human"
	ModePseudo GroundTruthMode = "pseudo"
)

// GroundTruth maps query IDs to their ordered relevance judgments. An
// artifact is built in exactly one mode; human and pseudo labels are never
// mixed within a run.
type GroundTruth struct {
	Mode      GroundTruthMode                `json:"mode"`
	Judgments map[string][]RelevanceJudgment `json:"judgments"`
}

// QueryRetrieval is the retrieval outcome for one query. Error is set when
// the query's retrieval failed; the batch continues without it.
type QueryRetrieval struct {
	Query   Query          `json:"query"`
	Results []ScoredResult `json:"retrieved_docs"`
	Error   string         `json:"error,omitempty"`
}

// RetrievalResults is the retrieval stage record. TopK is carried so
// evaluation can reject a mismatched cutoff instead of silently tolerating
// it.
type RetrievalResults struct {
	TopK     int                       `json:"top_k"`
	Reranked bool                      `json:"reranked"`
	Queries  map[string]QueryRetrieval `json:"queries"`
}

// QueryMetrics holds the metric values for a single query.
type QueryMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	MRR       float64 `json:"mrr"`
	NDCG      float64 `json:"ndcg"`
}

// MetricReport is the evaluation stage record. Aggregate is the arithmetic
// mean over evaluated queries; queries with empty ground truth are skipped
// with a warning and excluded from the mean, failed queries are counted
// separately.
type MetricReport struct {
	K               int                     `json:"k"`
	GroundTruthMode GroundTruthMode         `json:"ground_truth_mode"`
	PerQuery        map[string]QueryMetrics `json:"per_query"`
	Aggregate       QueryMetrics            `json:"aggregate"`
	Evaluated       int                     `json:"evaluated"`
	Skipped         []string                `json:"skipped,omitempty"`
	Failed          map[string]string       `json:"failed,omitempty"`
	Warnings        []string                `json:"warnings,omitempty"`
}

// GeneratedAnswer is one answer produced by the external generation service
// from a query and its top-ranked chunk texts. UsedDocs lists the IDs of
// the chunks whose texts were handed to the generator.
type GeneratedAnswer struct {
	Query    string   `json:"query"`
	Answer   string   `json:"answer"`
	UsedDocs []string `json:"used_docs"`
	Error    string   `json:"error,omitempty"`
}

// Run is one immutable pipeline execution. Artifacts written under a run are
// never mutated; a new execution always allocates a new run.
type Run struct {
	ID        string    `yaml:"id" json:"id"`
	Dir       string    `yaml:"-" json:"-"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	Finalized bool      `yaml:"finalized" json:"finalized"`

	GroundTruthMode GroundTruthMode `yaml:"ground_truth_mode,omitempty" json:"ground_truth_mode,omitempty"`
}

// Stage names for run artifacts.
const (
	StageRetrieval     = "retrieval_results"
	StageGroundTruth   = "ground_truth"
	StageMetrics       = "metrics"
	StageAnswers       = "answers"
	StageAnswerMetrics = "answer_metrics"
)
