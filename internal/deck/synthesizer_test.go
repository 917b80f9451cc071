package deck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/generation"
)

type stubGenerator struct {
	cards      []generation.CardCandidate
	cardsErr   error
	prose      string
	composeErr error
	prompts    []string
}

func (s *stubGenerator) ProposeTerms(ctx context.Context, text string) ([]generation.TermCandidate, error) {
	return nil, errors.New("not used")
}

func (s *stubGenerator) AuthorCards(ctx context.Context, text string) ([]generation.CardCandidate, error) {
	if s.cardsErr != nil {
		return nil, s.cardsErr
	}
	return s.cards, nil
}

func (s *stubGenerator) Compose(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.composeErr != nil {
		return "", s.composeErr
	}
	return s.prose, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func definedTerm(term, def string) *domain.KeyTerm {
	return &domain.KeyTerm{
		Term:       term,
		Definition: def,
		Provenance: domain.ProvenanceSource,
		Confidence: 1.0,
	}
}

func TestSynthesizeSeedsCardPerDefinedTerm(t *testing.T) {
	t.Parallel()

	syn, err := NewSynthesizer(&stubGenerator{}, discardLogger())
	require.NoError(t, err)

	terms := []*domain.KeyTerm{
		definedTerm("Raft", "A consensus algorithm for replicated logs."),
		{Term: "Paxos", NeedsEnrichment: true}, // undefined, skipped
	}

	cards, dropped := syn.Synthesize(context.Background(), terms, nil)

	require.Len(t, cards, 1)
	assert.Empty(t, dropped)
	assert.Equal(t, "What is Raft?", cards[0].Front)
	assert.Equal(t, "A consensus algorithm for replicated logs.", cards[0].Back)
	assert.Contains(t, cards[0].Tags, "study_bot")
	assert.Contains(t, cards[0].Tags, "key_term")
	assert.Equal(t, "raft", cards[0].Term)
}

func TestSynthesizeTagsWebEnrichedTerms(t *testing.T) {
	t.Parallel()

	syn, err := NewSynthesizer(&stubGenerator{}, discardLogger())
	require.NoError(t, err)

	term := definedTerm("CRDT", "Conflict-free replicated data type.")
	term.Provenance = domain.ProvenanceWeb

	cards, _ := syn.Synthesize(context.Background(), []*domain.KeyTerm{term}, nil)

	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Tags, "web_enriched")
}

func TestSynthesizeDeduplicatesByNormalizedFront(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{cards: []generation.CardCandidate{
		{Front: "what is  RAFT?", Back: "Duplicate of the seeded card.", Tags: []string{"agent"}},
		{Front: "How does leader election work?", Back: "Via randomized timeouts.", Tags: []string{"agent"}},
	}}
	syn, err := NewSynthesizer(gen, discardLogger())
	require.NoError(t, err)

	terms := []*domain.KeyTerm{definedTerm("Raft", "A consensus algorithm.")}
	docs := []*domain.SourceDocument{{Source: "notes.md", Text: "raft notes"}}

	cards, dropped := syn.Synthesize(context.Background(), terms, docs)

	require.Len(t, cards, 2)
	assert.Empty(t, dropped)
	// First occurrence wins: the seeded card's back survives.
	assert.Equal(t, "A consensus algorithm.", cards[0].Back)
	assert.Equal(t, "How does leader election work?", cards[1].Front)
}

func TestSynthesizeDropsSchemaViolations(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{cards: []generation.CardCandidate{
		{Front: "", Back: "No front at all."},
		{Front: "Valid front", Back: "Valid back."},
	}}
	syn, err := NewSynthesizer(gen, discardLogger())
	require.NoError(t, err)

	docs := []*domain.SourceDocument{{Source: "notes.md", Text: "notes"}}
	cards, dropped := syn.Synthesize(context.Background(), nil, docs)

	require.Len(t, cards, 1)
	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0], domain.ErrValidation)
}

func TestSynthesizeAuthoringFailureDegradesNotAborts(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{cardsErr: errors.New("model overloaded")}
	syn, err := NewSynthesizer(gen, discardLogger())
	require.NoError(t, err)

	terms := []*domain.KeyTerm{definedTerm("Raft", "A consensus algorithm.")}
	docs := []*domain.SourceDocument{{Source: "notes.md", Text: "notes"}}

	cards, dropped := syn.Synthesize(context.Background(), terms, docs)

	require.Len(t, cards, 1) // seeded card survives
	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0], domain.ErrExtraction)
}

func TestSynthesizeStableIDsAcrossRuns(t *testing.T) {
	t.Parallel()

	terms := []*domain.KeyTerm{definedTerm("Raft", "A consensus algorithm.")}

	syn, err := NewSynthesizer(&stubGenerator{}, discardLogger())
	require.NoError(t, err)

	first, _ := syn.Synthesize(context.Background(), terms, nil)
	second, _ := syn.Synthesize(context.Background(), terms, nil)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestSummarizeComposesOverviewFromDocuments(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{prose: "  The material covers the cell cycle.  "}
	syn, err := NewSynthesizer(gen, discardLogger())
	require.NoError(t, err)

	docs := []*domain.SourceDocument{
		{Source: "bio.md", Text: "Mitosis splits one cell into two."},
		{Source: "chem.md", Text: "ATP stores chemical energy."},
	}

	overview, err := syn.Summarize(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, "The material covers the cell cycle.", overview)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Mitosis splits one cell into two.")
	assert.Contains(t, gen.prompts[0], "ATP stores chemical energy.")
}

func TestSummarizeModelFailure(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{composeErr: errors.New("model unavailable")}
	syn, err := NewSynthesizer(gen, discardLogger())
	require.NoError(t, err)

	docs := []*domain.SourceDocument{{Source: "bio.md", Text: "notes"}}
	_, err = syn.Summarize(context.Background(), docs)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestSummarizeNoDocuments(t *testing.T) {
	t.Parallel()

	syn, err := NewSynthesizer(&stubGenerator{}, discardLogger())
	require.NoError(t, err)

	_, err = syn.Summarize(context.Background(), nil)
	assert.Error(t, err)
}

func TestSanitizeTags(t *testing.T) {
	t.Parallel()

	got := sanitizeTags([]string{"Study Bot", "key-term", "C++ Notes!", "  ", "ok_1"})
	assert.Equal(t, []string{"study_bot", "key_term", "c_notes", "ok_1"}, got)
}
