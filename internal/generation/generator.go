package generation

import "context"

// TermCandidate is one (term, definition-or-empty) pair proposed by the
// language model before grounding verification.
type TermCandidate struct {
	Term       string `json:"term"`
	Definition string `json:"definition,omitempty"`
	Context    string `json:"context,omitempty"`
}

// CardCandidate is one model-authored flashcard before schema validation
// and deduplication.
type CardCandidate struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags,omitempty"`
}

// Generator is the boundary to the external language-model capability. The
// model is treated as unreliable and slow: implementations must time out and
// validate the returned shape; callers must tolerate empty or partial output.
type Generator interface {
	// ProposeTerms extracts candidate key terms with in-text definitions
	// from one document's normalized text.
	ProposeTerms(ctx context.Context, text string) ([]TermCandidate, error)

	// AuthorCards writes additional flashcards covering material not
	// captured as discrete terms (relationships, worked examples).
	AuthorCards(ctx context.Context, text string) ([]CardCandidate, error)

	// Compose produces free-form prose for the given prompt, used for
	// study-sheet sections and run summaries.
	Compose(ctx context.Context, prompt string) (string, error)
}

// Embedder produces vector embeddings for text. The embedding model itself
// is external; the core only moves vectors between this interface and the
// knowledge store.
type Embedder interface {
	// EmbedDocument embeds text for storage and indexing.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a retrieval query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}
