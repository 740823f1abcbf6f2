package usecase

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"rageval/internal/domain"
)

// LoadQueries reads an evaluation query set from a JSON file. Queries
// without an identifier are assigned one; queries without text are skipped
// and counted. File order is preserved.
func LoadQueries(path string) ([]domain.Query, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read query file: %w", err)
	}

	var raw []domain.Query
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("invalid query file: %w", err)
	}

	queries := make([]domain.Query, 0, len(raw))
	skipped := 0
	seen := make(map[string]bool)
	for _, q := range raw {
		if q.Text == "" {
			skipped++
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if seen[q.ID] {
			skipped++
			continue
		}
		seen[q.ID] = true
		queries = append(queries, q)
	}

	return queries, skipped, nil
}
