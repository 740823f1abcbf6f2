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
	retrieveQueries string
	retrieveTopK    int
	retrieveRerank  bool
	retrieveJSON    bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Rank the corpus for each query and start a new run",
	Long: `Retrieve the top-K chunks for every query in the query file and persist
the ranked lists as the retrieval stage of a new run. Queries without a
pre-computed embedding are embedded via the configured service.

Examples:
  rageval retrieve --queries queries.json
  rageval retrieve --queries queries.json --top-k 10 --rerank`,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVarP(&retrieveQueries, "queries", "q", "", "query file (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of results (default from config)")
	retrieveCmd.Flags().BoolVar(&retrieveRerank, "rerank", false, "rerank the candidate pool")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "print the retrieval record as JSON")
	retrieveCmd.MarkFlagRequired("queries")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	index, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	queries, skipped, err := usecase.LoadQueries(retrieveQueries)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d invalid queries\n", skipped)
	}
	if len(queries) == 0 {
		return fmt.Errorf("no valid queries in %s", retrieveQueries)
	}

	topK := cfg.Retrieve.TopK
	if retrieveTopK > 0 {
		topK = retrieveTopK
	}
	rerank := retrieveRerank || cfg.Retrieve.Rerank

	ret, err := newRetriever(index, rerank, cfg.Retrieve.PoolK)
	if err != nil {
		return err
	}

	var embedder port.Embedder
	if needEmbedder(queries) {
		if embedder, err = newEmbedder(); err != nil {
			return err
		}
	}

	retrieveUC := usecase.NewRetrieveUseCase(ret, embedder, topK, cfg.Retrieve.Workers, rerank, cfg.Embedding.MaxRetries)

	bar := newBar(len(queries), "Retrieving")
	results, err := retrieveUC.Run(queries, func(n int) {
		bar.Add(n)
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	runStore := newRunStore()
	run, err := runStore.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin run: %w", err)
	}
	if err := runStore.Write(run, domain.StageRetrieval, results); err != nil {
		return fmt.Errorf("failed to write retrieval record: %w", err)
	}

	failed := 0
	for _, qr := range results.Queries {
		if qr.Error != "" {
			failed++
		}
	}

	fmt.Printf("Run %s: retrieved top-%d for %d queries", run.ID, topK, len(queries))
	if failed > 0 {
		fmt.Printf(" (%d failed)", failed)
	}
	fmt.Println()

	if retrieveJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}
