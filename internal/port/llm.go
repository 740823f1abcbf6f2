package port

// AnswerGenerator produces a natural-language answer from a query and its
// retrieved context chunks. The core never interprets answer quality.
type AnswerGenerator interface {
	Generate(query string, contexts []string) (string, error)

	// ModelName returns the name of the generation model.
	ModelName() string
}
