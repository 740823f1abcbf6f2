package scorer

// TermOverlapScorer provides simple term-frequency relevance scoring when
// no external scoring service is available. Deterministic, which also makes
// it the scorer of choice in tests.
type TermOverlapScorer struct{}

// NewTermOverlapScorer creates a new term overlap scorer.
func NewTermOverlapScorer() *TermOverlapScorer {
	return &TermOverlapScorer{}
}

// Score returns the fraction of query terms present in the document.
func (s *TermOverlapScorer) Score(query, chunkText string) (float64, error) {
	queryTerms := tokenizeSimple(query)
	if len(queryTerms) == 0 {
		return 0, nil
	}

	docTerms := tokenizeSimple(chunkText)
	if len(docTerms) == 0 {
		return 0, nil
	}

	matches := 0
	for term := range queryTerms {
		if _, exists := docTerms[term]; exists {
			matches++
		}
	}
	return float64(matches) / float64(len(queryTerms)), nil
}

// ModelName returns the model name.
func (s *TermOverlapScorer) ModelName() string {
	return "term-overlap"
}

// tokenizeSimple performs basic tokenization.
func tokenizeSimple(text string) map[string]int {
	terms := make(map[string]int)
	word := ""
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			word += string(r)
		} else {
			if len(word) >= 2 {
				terms[word]++
			}
			word = ""
		}
	}
	if len(word) >= 2 {
		terms[word]++
	}
	return terms
}
