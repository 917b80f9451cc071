// Package deck merges term-seeded and model-authored card candidates into a
// deduplicated, schema-valid flashcard set with stable identifiers, and
// writes the deck artifacts.
package deck

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/generation"
)

// Synthesizer builds the final flashcard set for a run.
type Synthesizer struct {
	generator generation.Generator
	logger    *slog.Logger
}

// NewSynthesizer wires a Synthesizer.
func NewSynthesizer(generator generation.Generator, logger *slog.Logger) (*Synthesizer, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	return &Synthesizer{generator: generator, logger: logger}, nil
}

// Synthesize produces the deduplicated deck: one seeded card per defined
// KeyTerm, then model-authored cards per document covering material not
// captured as discrete terms. Duplicate fronts (case- and whitespace-
// insensitive) are silently dropped, first occurrence wins. Candidates that
// violate the card schema are dropped and reported through the returned
// failure list, never as a run failure.
func (s *Synthesizer) Synthesize(ctx context.Context, terms []*domain.KeyTerm, docs []*domain.SourceDocument) ([]*domain.Flashcard, []error) {
	var dropped []error
	seen := make(map[string]struct{})
	var cards []*domain.Flashcard

	add := func(front, back string, tags []string, term string) {
		card, err := domain.NewFlashcard(front, back, sanitizeTags(tags), term)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("%w: %q: %v", domain.ErrValidation, front, err))
			return
		}
		key := card.CanonicalFront()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		cards = append(cards, card)
	}

	for _, term := range terms {
		if !term.Defined() {
			continue
		}
		tags := []string{"study-bot", "key-term"}
		if term.Provenance == domain.ProvenanceWeb {
			tags = append(tags, "web_enriched")
		}
		add(fmt.Sprintf("What is %s?", strings.TrimSpace(term.Term)), term.Definition, tags, term.Canonical())
	}

	for _, doc := range docs {
		candidates, err := s.generator.AuthorCards(ctx, doc.Text)
		if err != nil {
			// Degrades coverage for this document only; term-seeded cards
			// are already in the deck.
			s.logger.WarnContext(ctx, "card authoring failed for document",
				"source", doc.Source,
				"error", err)
			dropped = append(dropped, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, doc.Source, err))
			continue
		}
		for _, cand := range candidates {
			tags := cand.Tags
			if len(tags) == 0 {
				// Every authored card must carry at least one tag.
				tags = []string{"study-bot"}
			}
			add(cand.Front, cand.Back, tags, "")
		}
	}

	s.logger.InfoContext(ctx, "deck synthesized",
		"cards", len(cards),
		"dropped", len(dropped))
	return cards, dropped
}

// summaryCharBudget bounds how much source text the summary prompt carries.
const summaryCharBudget = 24000

// Summarize asks the model for a short overview of the study material, for
// the run summary. Failures degrade the summary to statistics only; callers
// record the error rather than failing the run.
func (s *Synthesizer) Summarize(ctx context.Context, docs []*domain.SourceDocument) (string, error) {
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: no documents to summarize", generation.ErrGenerationFailed)
	}

	var material strings.Builder
	budget := summaryCharBudget / len(docs)
	for _, doc := range docs {
		text := doc.Text
		if len(text) > budget {
			cut := budget
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		fmt.Fprintf(&material, "# %s\n\n%s\n\n", doc.Source, text)
	}

	prompt := "Summarize the following study material in two or three short paragraphs.\n" +
		"Cover the main topics and how they relate. Plain prose only, no preamble.\n\n" +
		material.String()

	overview, err := s.generator.Compose(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: summarizing material: %v", domain.ErrExtraction, err)
	}
	return strings.TrimSpace(overview), nil
}

// sanitizeTags normalizes tags the way the downstream deck tool expects:
// lowercase, spaces and hyphens become underscores, anything outside
// [a-z0-9_] is removed, empties are dropped.
func sanitizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		tag = strings.NewReplacer(" ", "_", "-", "_").Replace(tag)
		var b strings.Builder
		for _, r := range tag {
			if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return out
}
