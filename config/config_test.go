package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retrieve.TopK != 5 {
		t.Errorf("Retrieve.TopK = %d, want 5", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.PoolK < cfg.Retrieve.TopK {
		t.Errorf("Retrieve.PoolK = %d, must be >= TopK %d", cfg.Retrieve.PoolK, cfg.Retrieve.TopK)
	}
	if cfg.GroundTruth.Mode != "pseudo" {
		t.Errorf("GroundTruth.Mode = %q, want pseudo", cfg.GroundTruth.Mode)
	}
	if cfg.Evaluate.K != cfg.Retrieve.TopK {
		t.Errorf("Evaluate.K = %d, want it matching Retrieve.TopK %d", cfg.Evaluate.K, cfg.Retrieve.TopK)
	}
	if cfg.Scoring.Provider != "overlap" {
		t.Errorf("Scoring.Provider = %q, want overlap", cfg.Scoring.Provider)
	}
	if cfg.Runs.Dir == "" {
		t.Error("Runs.Dir must have a default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Retrieve.TopK != DefaultConfig().Retrieve.TopK {
		t.Error("missing config file must fall back to defaults")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rageval.yaml")
	content := []byte(`
retrieve:
  top_k: 10
  rerank: true
ground_truth:
  mode: human
  judgments_path: labels.json
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Retrieve.TopK != 10 {
		t.Errorf("Retrieve.TopK = %d, want 10", cfg.Retrieve.TopK)
	}
	if !cfg.Retrieve.Rerank {
		t.Error("Retrieve.Rerank not loaded")
	}
	if cfg.GroundTruth.Mode != "human" || cfg.GroundTruth.JudgmentsPath != "labels.json" {
		t.Errorf("GroundTruth = %+v", cfg.GroundTruth)
	}
	// Untouched sections keep their defaults.
	if cfg.Embedding.Model != DefaultConfig().Embedding.Model {
		t.Errorf("Embedding.Model = %q, want default preserved", cfg.Embedding.Model)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rageval.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7
	cfg.Runs.Dir = "eval_runs"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Retrieve.TopK != 7 || loaded.Runs.Dir != "eval_runs" {
		t.Errorf("roundtrip lost values: %+v", loaded.Retrieve)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	// No config anywhere: defaults.
	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir() error = %v", err)
	}
	if cfg.Retrieve.TopK != DefaultConfig().Retrieve.TopK {
		t.Error("empty directory must yield defaults")
	}

	// Hidden fallback location.
	if err := os.MkdirAll(filepath.Join(dir, ".rageval"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".rageval", "config.yaml"),
		[]byte("retrieve:\n  top_k: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir() error = %v", err)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("Retrieve.TopK = %d, want 3 from the fallback location", cfg.Retrieve.TopK)
	}

	// Top-level file wins over the fallback.
	if err := os.WriteFile(filepath.Join(dir, "rageval.yaml"),
		[]byte("retrieve:\n  top_k: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir() error = %v", err)
	}
	if cfg.Retrieve.TopK != 9 {
		t.Errorf("Retrieve.TopK = %d, want 9 from rageval.yaml", cfg.Retrieve.TopK)
	}
}
