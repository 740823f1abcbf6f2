package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"rageval/internal/domain"
	"rageval/internal/usecase"
)

var (
	gtRun       string
	gtQueries   string
	gtJudgments string
)

var groundtruthCmd = &cobra.Command{
	Use:   "groundtruth",
	Short: "Build relevance judgments for a run",
	Long: `Build the ground-truth stage of a run, either from an external
human-labeled judgment file or, when none is given, as pseudo labels by
reranking a larger candidate pool per query. The producing mode is
recorded in the run's metadata; a run holds judgments from exactly one
mode.

Examples:
  rageval groundtruth --queries queries.json          # pseudo labels
  rageval groundtruth --judgments labels.json         # human labels`,
	RunE: runGroundTruth,
}

func init() {
	rootCmd.AddCommand(groundtruthCmd)
	groundtruthCmd.Flags().StringVar(&gtRun, "run", "", "run to attach to (default: latest run with retrieval results)")
	groundtruthCmd.Flags().StringVarP(&gtQueries, "queries", "q", "", "query file for pseudo-label mode")
	groundtruthCmd.Flags().StringVar(&gtJudgments, "judgments", "", "human judgment file (switches to human-label mode)")
}

func runGroundTruth(cmd *cobra.Command, args []string) error {
	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	runStore := newRunStore()
	run, err := resolveRun(runStore, gtRun, domain.StageRetrieval)
	if err != nil {
		return err
	}

	mode := cfg.GroundTruth.Mode
	if gtJudgments != "" {
		mode = "human"
	}

	var gt *domain.GroundTruth
	switch mode {
	case "human":
		if gtJudgments == "" {
			return fmt.Errorf("human-label mode requires --judgments")
		}
		gtUC := usecase.NewGroundTruthUseCase(index, nil, 0, 0, false, 0, 0)
		gt, err = gtUC.BuildHuman(gtJudgments)
		if err != nil {
			return fmt.Errorf("failed to build ground truth: %w", err)
		}

	case "pseudo":
		if gtQueries == "" {
			return fmt.Errorf("pseudo-label mode requires --queries")
		}
		queries, skipped, err := usecase.LoadQueries(gtQueries)
		if err != nil {
			return err
		}
		if skipped > 0 {
			fmt.Fprintf(os.Stderr, "Skipped %d invalid queries\n", skipped)
		}

		embedWarnings, err := embedMissing(queries)
		if err != nil {
			return err
		}
		for _, w := range embedWarnings {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
		}

		// Pseudo labels rerank a pool larger than the final K, with the
		// reranker always on.
		pseudo, err := newRetriever(index, true, cfg.GroundTruth.PoolK)
		if err != nil {
			return err
		}
		gtUC := usecase.NewGroundTruthUseCase(index, pseudo,
			cfg.GroundTruth.PoolK, cfg.GroundTruth.TopN,
			cfg.GroundTruth.Graded, cfg.GroundTruth.ScoreThreshold,
			cfg.Retrieve.Workers)

		bar := newBar(len(queries), "Judging")
		var warnings []string
		gt, warnings, err = gtUC.BuildPseudo(queries, func(n int) {
			bar.Add(n)
		})
		if err != nil {
			return fmt.Errorf("failed to build ground truth: %w", err)
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
		}

	default:
		return fmt.Errorf("unknown ground truth mode: %s", mode)
	}

	if err := runStore.Write(run, domain.StageGroundTruth, gt); err != nil {
		return fmt.Errorf("failed to write ground truth record: %w", err)
	}
	if err := runStore.SetMode(run, gt.Mode); err != nil {
		return fmt.Errorf("failed to record ground truth mode: %w", err)
	}

	fmt.Printf("Run %s: %s ground truth for %d queries\n", run.ID, gt.Mode, len(gt.Judgments))
	return nil
}

// needEmbedder reports whether any query still lacks a vector.
func needEmbedder(queries []domain.Query) bool {
	for _, q := range queries {
		if len(q.Vector) == 0 {
			return true
		}
	}
	return false
}

// embedMissing fills in vectors for queries that lack one. A query whose
// embedding fails is left without a vector and reported as a warning; the
// downstream stage skips it instead of the whole batch aborting.
func embedMissing(queries []domain.Query) ([]string, error) {
	if !needEmbedder(queries) {
		return nil, nil
	}

	embedder, err := newEmbedder()
	if err != nil {
		return nil, err
	}

	retries := cfg.Embedding.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var warnings []string
	for i := range queries {
		if len(queries[i].Vector) > 0 {
			continue
		}
		vector, err := usecase.EmbedText(embedder, queries[i].Text, uint64(retries))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("query %s: %v: %v", queries[i].ID, domain.ErrEmbeddingUnavailable, err))
			continue
		}
		queries[i].Vector = vector
	}
	return warnings, nil
}
