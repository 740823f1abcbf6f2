package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"rageval/internal/domain"
	"rageval/internal/usecase"
)

var (
	answersRun    string
	answersScores string
)

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Generate answers for a run, or attach external answer scores",
	Long: `Hand each query and its top-ranked chunk texts to the configured
answer generation service and persist the answers as a run stage. With
--scores, attach an externally produced answer-quality report instead;
the pipeline records it verbatim and never interprets it.

Examples:
  rageval answers
  rageval answers --scores answer_metrics.json`,
	RunE: runAnswers,
}

func init() {
	rootCmd.AddCommand(answersCmd)
	answersCmd.Flags().StringVar(&answersRun, "run", "", "run to attach to (default: latest with retrieval results)")
	answersCmd.Flags().StringVar(&answersScores, "scores", "", "external answer-quality scores to attach")
}

func runAnswers(cmd *cobra.Command, args []string) error {
	runStore := newRunStore()
	run, err := resolveRun(runStore, answersRun, domain.StageRetrieval)
	if err != nil {
		return err
	}

	if answersScores != "" {
		scores, err := usecase.LoadAnswerScores(answersScores)
		if err != nil {
			return err
		}
		if err := runStore.Write(run, domain.StageAnswerMetrics, scores); err != nil {
			return fmt.Errorf("failed to write answer scores: %w", err)
		}
		fmt.Printf("Run %s: attached answer scores\n", run.ID)
		return nil
	}

	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	generator, err := newGenerator()
	if err != nil {
		return err
	}

	var results domain.RetrievalResults
	if err := runStore.Read(run.ID, domain.StageRetrieval, &results); err != nil {
		return err
	}

	answerUC := usecase.NewAnswerUseCase(index, generator, cfg.Answers.TopN)
	bar := newBar(len(results.Queries), "Generating")
	answers := answerUC.Generate(&results, func(n int) {
		bar.Add(n)
	})

	if err := runStore.Write(run, domain.StageAnswers, answers); err != nil {
		return fmt.Errorf("failed to write answers: %w", err)
	}

	failed := 0
	for _, a := range answers {
		if a.Error != "" {
			failed++
		}
	}
	fmt.Printf("Run %s: generated %d answers", run.ID, len(answers)-failed)
	if failed > 0 {
		fmt.Printf(" (%d failed)", failed)
	}
	fmt.Println()
	return nil
}
