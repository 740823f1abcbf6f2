package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the evaluation pipeline.
type Config struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Retrieve    RetrieveConfig    `yaml:"retrieve"`
	GroundTruth GroundTruthConfig `yaml:"ground_truth"`
	Evaluate    EvaluateConfig    `yaml:"evaluate"`
	Answers     AnswersConfig     `yaml:"answers"`
	Runs        RunsConfig        `yaml:"runs"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// CorpusConfig describes where pre-embedded chunk files live.
type CorpusConfig struct {
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
	Dimension int      `yaml:"dimension"` // 0 = adopt the first chunk's dimension
}

// EmbeddingConfig holds embedding service configuration.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model      string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv  string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL    string `yaml:"base_url"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
	MaxRetries int    `yaml:"max_retries"`
}

// ScoringConfig holds relevance-scoring service configuration.
type ScoringConfig struct {
	Provider   string `yaml:"provider"` // "cohere", "overlap"
	Model      string `yaml:"model"`
	APIKeyEnv  string `yaml:"api_key_env"`
	MaxRetries int    `yaml:"max_retries"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK    int  `yaml:"top_k"`
	PoolK   int  `yaml:"pool_k"` // candidate pool when reranking, must be >= top_k
	Rerank  bool `yaml:"rerank"`
	Workers int  `yaml:"workers"` // 0 = NumCPU capped at 8
}

// GroundTruthConfig holds ground-truth construction configuration.
type GroundTruthConfig struct {
	Mode           string  `yaml:"mode"` // "human" or "pseudo"
	JudgmentsPath  string  `yaml:"judgments_path"`
	PoolK          int     `yaml:"pool_k"`
	TopN           int     `yaml:"top_n"`
	Graded         bool    `yaml:"graded"`
	ScoreThreshold float64 `yaml:"score_threshold"` // binary cutoff when graded=false
}

// EvaluateConfig holds metric computation configuration.
type EvaluateConfig struct {
	K int `yaml:"k"`
}

// AnswersConfig holds answer generation configuration.
type AnswersConfig struct {
	Provider  string `yaml:"provider"` // "openai", "none"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	TopN      int    `yaml:"top_n"` // chunks handed to the generator per query
}

// RunsConfig holds run artifact storage configuration.
type RunsConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Includes:  []string{"**/*.json"},
			Excludes:  []string{"**/queries*.json", "**/ground_truth*.json"},
			Dimension: 0,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			APIKeyEnv:  "OPENAI_API_KEY",
			BatchSize:  100,
			CacheSize:  1024,
			MaxRetries: 3,
		},
		Scoring: ScoringConfig{
			Provider:   "overlap",
			Model:      "rerank-english-v3.0",
			APIKeyEnv:  "COHERE_API_KEY",
			MaxRetries: 3,
		},
		Retrieve: RetrieveConfig{
			TopK:   5,
			PoolK:  30,
			Rerank: false,
		},
		GroundTruth: GroundTruthConfig{
			Mode:           "pseudo",
			PoolK:          30,
			TopN:           5,
			Graded:         true,
			ScoreThreshold: 0.5,
		},
		Evaluate: EvaluateConfig{
			K: 5,
		},
		Answers: AnswersConfig{
			Provider:  "none",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			TopN:      5,
		},
		Runs: RunsConfig{
			Dir: "retrieval_output",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rageval.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rageval.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rageval", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the vector index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".rageval", "index.db")
}

// RunsDir resolves the run artifact directory relative to the root.
func RunsDir(dir string, c *Config) string {
	if filepath.IsAbs(c.Runs.Dir) {
		return c.Runs.Dir
	}
	return filepath.Join(dir, c.Runs.Dir)
}

// EnsureWorkDir ensures the .rageval directory exists.
func EnsureWorkDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".rageval"), 0755)
}
