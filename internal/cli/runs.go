package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"rageval/internal/adapter/store"
	"rageval/internal/domain"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all runs, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := newRunStore().List()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs found")
			return nil
		}
		for _, run := range runs {
			state := "open"
			if run.Finalized {
				state = "finalized"
			}
			line := fmt.Sprintf("%s  %s", run.ID, state)
			if run.GroundTruthMode != "" {
				line += fmt.Sprintf("  %s labels", run.GroundTruthMode)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id> [stage]",
	Short: "Show a run's stages, or print one stage record",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore := newRunStore()

		if len(args) == 1 {
			stages, err := runStore.Stages(args[0])
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(stages, "\n"))
			return nil
		}

		var record json.RawMessage
		if err := runStore.Read(args[0], args[1], &record); err != nil {
			return err
		}
		fmt.Println(string(record))
		return nil
	},
}

var runsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the latest run with retrieval results and ground truth",
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := newRunStore().Latest(domain.StageRetrieval, domain.StageGroundTruth)
		if err != nil {
			return err
		}
		fmt.Println(run.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsLatestCmd)
}

// resolveRun opens the named run, or falls back to the latest run carrying
// the given stages.
func resolveRun(runStore *store.FSRunStore, runID string, stages ...string) (*domain.Run, error) {
	if runID != "" {
		return runStore.Open(runID)
	}
	run, err := runStore.Latest(stages...)
	if err != nil {
		return nil, fmt.Errorf("no suitable run found, run 'rageval retrieve' first: %w", err)
	}
	return run, nil
}
