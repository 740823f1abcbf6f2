package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"rageval/internal/domain"
	"rageval/internal/usecase"
)

var (
	evalRun      string
	evalK        int
	evalFinalize bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compute retrieval metrics for a run",
	Long: `Score a run's ranked results against its ground truth: Precision@K,
Recall@K, MRR and NDCG@K per query, plus the corpus-level mean. The
cutoff K must match the K that produced the ranked lists.

Examples:
  rageval evaluate
  rageval evaluate --run run_2026-08-23_10-00-00.000 --finalize`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalRun, "run", "", "run to evaluate (default: latest with retrieval and ground truth)")
	evaluateCmd.Flags().IntVarP(&evalK, "k", "k", 0, "evaluation cutoff (default from config)")
	evaluateCmd.Flags().BoolVar(&evalFinalize, "finalize", false, "finalize the run after writing the report")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	runStore := newRunStore()
	run, err := resolveRun(runStore, evalRun, domain.StageRetrieval, domain.StageGroundTruth)
	if err != nil {
		return err
	}

	var results domain.RetrievalResults
	if err := runStore.Read(run.ID, domain.StageRetrieval, &results); err != nil {
		return err
	}
	var gt domain.GroundTruth
	if err := runStore.Read(run.ID, domain.StageGroundTruth, &gt); err != nil {
		return err
	}

	k := cfg.Evaluate.K
	if evalK > 0 {
		k = evalK
	}

	report, err := usecase.NewEvaluateUseCase(k).Evaluate(&results, &gt)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if err := runStore.Write(run, domain.StageMetrics, report); err != nil {
		return fmt.Errorf("failed to write metric report: %w", err)
	}

	if evalFinalize {
		if err := runStore.Finalize(run); err != nil {
			return fmt.Errorf("failed to finalize run: %w", err)
		}
	}

	data, err := json.MarshalIndent(report.Aggregate, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("Run %s: evaluated %d queries at k=%d (%s labels)\n",
		run.ID, report.Evaluated, report.K, report.GroundTruthMode)
	if len(report.Skipped) > 0 {
		fmt.Printf("Skipped %d queries with empty ground truth\n", len(report.Skipped))
	}
	if len(report.Failed) > 0 {
		fmt.Printf("Failed queries: %d\n", len(report.Failed))
	}
	fmt.Println(string(data))
	return nil
}
