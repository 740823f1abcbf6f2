package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"rageval/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "rageval",
	Short: "Retrieval evaluation pipeline - rank, judge, and score pre-embedded corpora",
	Long: `rageval runs a retrieval-and-evaluation pipeline over a corpus of
pre-embedded text chunks: nearest-neighbor retrieval with optional
reranking, ground-truth construction (human or pseudo labels), and
rank-aware quality metrics (Precision@K, Recall@K, MRR, NDCG@K).
Every execution is an immutable, timestamp-identified run.

Example usage:
  rageval index ./corpus                 # Load pre-embedded chunks
  rageval retrieve --queries q.json      # Rank the corpus per query
  rageval groundtruth --queries q.json   # Build pseudo-label judgments
  rageval evaluate                       # Score the latest run`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./rageval.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}
