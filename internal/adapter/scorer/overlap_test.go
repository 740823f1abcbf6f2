package scorer

import "testing"

func TestTermOverlapScore(t *testing.T) {
	s := NewTermOverlapScorer()

	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{"full overlap", "vector index", "a vector index over chunks", 1.0},
		{"half overlap", "vector index", "an inverted index", 0.5},
		{"no overlap", "vector index", "completely unrelated text", 0.0},
		{"empty query", "", "some text", 0.0},
		{"empty document", "vector index", "", 0.0},
		{"single chars ignored", "a b vector", "vector things", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Score(tt.query, tt.text)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.query, tt.text, got, tt.want)
			}
		})
	}
}

func TestTermOverlapDeterministic(t *testing.T) {
	s := NewTermOverlapScorer()
	first, _ := s.Score("retrieval evaluation metrics", "metrics for retrieval quality")
	for i := 0; i < 10; i++ {
		got, _ := s.Score("retrieval evaluation metrics", "metrics for retrieval quality")
		if got != first {
			t.Fatalf("score changed between identical calls: %v vs %v", first, got)
		}
	}
}
