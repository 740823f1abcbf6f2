package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"rageval/config"
	"rageval/internal/adapter/fs"
	"rageval/internal/adapter/store"
	"rageval/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [corpus-dir]",
	Short: "Load pre-embedded chunk files into the vector index",
	Long: `Load corpus files of pre-embedded chunks into the local vector index.
Each corpus file is a JSON array of {chunk_id, doc_id, text, embedding}
entries; all chunks must share one embedding dimension.

Examples:
  rageval index ./corpus
  rageval index ./embeddings_output`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	corpusDir := rootDir
	if len(args) > 0 {
		corpusDir = args[0]
	}

	if err := config.EnsureWorkDir(rootDir); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	index, err := store.NewBoltVectorIndex(config.IndexDBPath(rootDir), cfg.Corpus.Dimension)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer index.Close()

	walker := fs.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes)
	indexUC := usecase.NewIndexUseCase(index, walker)

	total, err := indexUC.TotalFiles(corpusDir)
	if err != nil {
		return fmt.Errorf("failed to scan corpus directory: %w", err)
	}
	fmt.Printf("Loading %d corpus files from %s...\n", total, corpusDir)

	bar := newBar(total, "Loading")
	result, err := indexUC.Index(corpusDir, func(n int) {
		bar.Add(n)
	})
	if err != nil {
		return fmt.Errorf("corpus load failed: %w", err)
	}

	fmt.Printf("Loaded %d files, %d chunks (dimension %d)\n",
		result.FilesLoaded, result.ChunksAdded, index.Dimension())
	if result.EntriesSkipped > 0 {
		fmt.Printf("Skipped %d invalid entries\n", result.EntriesSkipped)
	}
	for _, e := range result.Errors {
		fmt.Printf("  warning: %s\n", e)
	}
	return nil
}

// newBar creates the standard progress bar used by batch commands.
func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}
