package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"rageval/internal/domain"
	"rageval/internal/port"
	"rageval/internal/usecase"
)

var (
	pipelineQueries   string
	pipelineJudgments string
	pipelineAnswers   bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run retrieve, groundtruth and evaluate as one finalized run",
	Long: `Execute the whole pipeline against the indexed corpus: batch
retrieval, ground-truth construction, metric computation, and optionally
answer generation, all persisted under one run that is finalized at the
end.

Examples:
  rageval pipeline --queries queries.json
  rageval pipeline --queries queries.json --judgments labels.json`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().StringVarP(&pipelineQueries, "queries", "q", "", "query file (required)")
	pipelineCmd.Flags().StringVar(&pipelineJudgments, "judgments", "", "human judgment file (switches ground truth to human-label mode)")
	pipelineCmd.Flags().BoolVar(&pipelineAnswers, "answers", false, "also generate answers for each query")
	pipelineCmd.MarkFlagRequired("queries")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	queries, skipped, err := usecase.LoadQueries(pipelineQueries)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d invalid queries\n", skipped)
	}
	if len(queries) == 0 {
		return fmt.Errorf("no valid queries in %s", pipelineQueries)
	}

	embedWarnings, err := embedMissing(queries)
	if err != nil {
		return err
	}
	for _, w := range embedWarnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}

	runStore := newRunStore()
	run, err := runStore.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin run: %w", err)
	}
	fmt.Printf("Run %s\n", run.ID)

	// Stage 1: retrieval.
	ret, err := newRetriever(index, cfg.Retrieve.Rerank, cfg.Retrieve.PoolK)
	if err != nil {
		return err
	}
	var embedder port.Embedder
	if needEmbedder(queries) {
		if embedder, err = newEmbedder(); err != nil {
			return err
		}
	}
	retrieveUC := usecase.NewRetrieveUseCase(ret, embedder,
		cfg.Retrieve.TopK, cfg.Retrieve.Workers, cfg.Retrieve.Rerank, cfg.Embedding.MaxRetries)

	bar := newBar(len(queries), "Retrieving")
	results, err := retrieveUC.Run(queries, func(n int) { bar.Add(n) })
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	if err := runStore.Write(run, domain.StageRetrieval, results); err != nil {
		return fmt.Errorf("failed to write retrieval record: %w", err)
	}

	// Stage 2: ground truth.
	var gt *domain.GroundTruth
	if pipelineJudgments != "" {
		gtUC := usecase.NewGroundTruthUseCase(index, nil, 0, 0, false, 0, 0)
		gt, err = gtUC.BuildHuman(pipelineJudgments)
		if err != nil {
			return fmt.Errorf("failed to build ground truth: %w", err)
		}
	} else {
		pseudo, err := newRetriever(index, true, cfg.GroundTruth.PoolK)
		if err != nil {
			return err
		}
		gtUC := usecase.NewGroundTruthUseCase(index, pseudo,
			cfg.GroundTruth.PoolK, cfg.GroundTruth.TopN,
			cfg.GroundTruth.Graded, cfg.GroundTruth.ScoreThreshold,
			cfg.Retrieve.Workers)

		bar = newBar(len(queries), "Judging")
		var warnings []string
		gt, warnings, err = gtUC.BuildPseudo(queries, func(n int) { bar.Add(n) })
		if err != nil {
			return fmt.Errorf("failed to build ground truth: %w", err)
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
		}
	}
	if err := runStore.Write(run, domain.StageGroundTruth, gt); err != nil {
		return fmt.Errorf("failed to write ground truth record: %w", err)
	}
	if err := runStore.SetMode(run, gt.Mode); err != nil {
		return fmt.Errorf("failed to record ground truth mode: %w", err)
	}

	// Stage 3: metrics.
	report, err := usecase.NewEvaluateUseCase(cfg.Retrieve.TopK).Evaluate(results, gt)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	if err := runStore.Write(run, domain.StageMetrics, report); err != nil {
		return fmt.Errorf("failed to write metric report: %w", err)
	}

	// Stage 4 (optional): answers.
	if pipelineAnswers {
		generator, err := newGenerator()
		if err != nil {
			return err
		}
		answerUC := usecase.NewAnswerUseCase(index, generator, cfg.Answers.TopN)
		bar = newBar(len(results.Queries), "Generating")
		answers := answerUC.Generate(results, func(n int) { bar.Add(n) })
		if err := runStore.Write(run, domain.StageAnswers, answers); err != nil {
			return fmt.Errorf("failed to write answers: %w", err)
		}
	}

	if err := runStore.Finalize(run); err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	data, err := json.MarshalIndent(report.Aggregate, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("Evaluated %d queries at k=%d (%s labels)\n",
		report.Evaluated, report.K, report.GroundTruthMode)
	fmt.Println(string(data))
	return nil
}
