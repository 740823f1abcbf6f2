package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"rageval/internal/adapter/fs"
	"rageval/internal/adapter/store"
)

func TestIndexCorpus(t *testing.T) {
	dir := t.TempDir()
	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	writeFile("corpus_a.json", `[
		{"chunk_id": "a", "doc_id": "d1", "text": "alpha", "embedding": [1, 0]},
		{"chunk_id": "b", "doc_id": "d1", "text": "beta", "embedding": [0, 1]}
	]`)
	writeFile("corpus_b.json", `[
		{"chunk_id": "c", "text": "gamma", "embedding": [1, 1]},
		{"chunk_id": "", "text": "missing id", "embedding": [1, 0]},
		{"chunk_id": "e", "text": "missing vector"}
	]`)
	writeFile("notes.txt", "not a corpus file")

	idx := store.NewMemoryVectorIndex(0)
	uc := NewIndexUseCase(idx, fs.NewWalker(nil, nil))

	result, err := uc.Index(dir, nil)
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	if result.FilesLoaded != 2 {
		t.Errorf("FilesLoaded = %d, want 2", result.FilesLoaded)
	}
	if result.ChunksAdded != 3 {
		t.Errorf("ChunksAdded = %d, want 3", result.ChunksAdded)
	}
	if result.EntriesSkipped != 2 {
		t.Errorf("EntriesSkipped = %d, want 2", result.EntriesSkipped)
	}
	if idx.Count() != 3 {
		t.Errorf("index Count() = %d, want 3", idx.Count())
	}
}

func TestIndexDuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	content := `[{"chunk_id": "a", "text": "alpha", "embedding": [1, 0]}]`
	for _, name := range []string{"one.json", "two.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	idx := store.NewMemoryVectorIndex(0)
	uc := NewIndexUseCase(idx, fs.NewWalker(nil, nil))

	result, err := uc.Index(dir, nil)
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	// The duplicate is rejected and recorded; the load continues.
	if result.ChunksAdded != 1 {
		t.Errorf("ChunksAdded = %d, want 1", result.ChunksAdded)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %v, want one duplicate rejection", result.Errors)
	}
	if result.FilesLoaded != 2 {
		t.Errorf("FilesLoaded = %d, want 2", result.FilesLoaded)
	}
}

func TestIndexMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "good.json"),
		[]byte(`[{"chunk_id": "a", "text": "alpha", "embedding": [1, 0]}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{broken`), 0644); err != nil {
		t.Fatal(err)
	}

	idx := store.NewMemoryVectorIndex(0)
	uc := NewIndexUseCase(idx, fs.NewWalker(nil, nil))

	result, err := uc.Index(dir, nil)
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.ChunksAdded != 1 {
		t.Errorf("ChunksAdded = %d, want 1", result.ChunksAdded)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %v, want one load failure", result.Errors)
	}
}
