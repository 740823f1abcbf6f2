package usecase

import (
	"encoding/json"
	"fmt"
	"os"

	"rageval/internal/adapter/fs"
	"rageval/internal/domain"
	"rageval/internal/port"
)

// IndexUseCase loads pre-embedded chunk files into the vector index.
type IndexUseCase struct {
	index  port.VectorIndex
	walker *fs.Walker
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(index port.VectorIndex, walker *fs.Walker) *IndexUseCase {
	return &IndexUseCase{
		index:  index,
		walker: walker,
	}
}

// IndexResult contains the results of a corpus load.
type IndexResult struct {
	FilesLoaded    int
	ChunksAdded    int
	EntriesSkipped int
	Errors         []string
}

// Index loads every corpus file under root into the index. Entries without
// an identifier or vector are skipped with a count; a chunk the index
// rejects (duplicate, wrong dimension) is recorded as an error and the load
// continues.
func (u *IndexUseCase) Index(root string, progress func(int)) (*IndexResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus directory: %w", err)
	}

	result := &IndexResult{}
	for _, file := range files {
		if err := u.indexFile(file, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to load %s: %v", file, err))
			continue
		}
		result.FilesLoaded++
		if progress != nil {
			progress(1)
		}
	}
	return result, nil
}

// TotalFiles returns how many corpus files would be loaded, for progress
// reporting.
func (u *IndexUseCase) TotalFiles(root string) (int, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func (u *IndexUseCase) indexFile(path string, result *IndexResult) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("invalid chunk file: %w", err)
	}

	for _, chunk := range chunks {
		if chunk.ID == "" || len(chunk.Vector) == 0 {
			result.EntriesSkipped++
			continue
		}
		if err := u.index.Add(chunk); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("chunk %s: %v", chunk.ID, err))
			continue
		}
		result.ChunksAdded++
	}
	return nil
}
