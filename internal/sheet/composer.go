// Package sheet renders a difficulty-ranked study sheet from scored terms
// and retrieved context.
package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/generation"
	"github.com/studybuddy-ai/studybuddy/internal/knowledge"
)

// Retriever is the slice of the knowledge store the composer needs.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]knowledge.ScoredChunk, error)
}

// RankedTerm is one study-sheet entry: a term plus its difficulty rank
// inputs. Known reports whether the score came from actual review history;
// Order carries the original extraction position for tie-breaking.
type RankedTerm struct {
	Term  *domain.KeyTerm
	Score float64
	Known bool
	Order int
}

// Composer builds the study-sheet markdown. Hardest material first, so a
// learner short on time reads the most valuable section before stopping.
type Composer struct {
	generator     generation.Generator
	retriever     Retriever
	logger        *slog.Logger
	contextChunks int
}

// NewComposer wires a Composer. contextChunks bounds retrieval per term.
func NewComposer(generator generation.Generator, retriever Retriever, contextChunks int, logger *slog.Logger) (*Composer, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", generation.ErrInvalidConfig)
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever cannot be nil", generation.ErrInvalidConfig)
	}
	if contextChunks < 1 {
		contextChunks = 4
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	return &Composer{
		generator:     generator,
		retriever:     retriever,
		logger:        logger,
		contextChunks: contextChunks,
	}, nil
}

// Compose renders the sheet: terms sorted by difficulty descending with
// extraction order breaking ties, a prose section per defined term built
// from retrieved context, and an unanswered section listing terms that
// never got definitions. Terms with no review history rank at the minimum
// known score and win that tie, so never-reviewed material lands ahead of
// the easiest reviewed cards without overtaking any real score. Per-term
// composition failures degrade that term to its bare definition and are
// returned for the run report.
func (c *Composer) Compose(ctx context.Context, ranked []RankedTerm) (string, []error) {
	minKnown := math.Inf(1)
	for _, entry := range ranked {
		if entry.Known && entry.Score < minKnown {
			minKnown = entry.Score
		}
	}
	rankScore := func(entry RankedTerm) float64 {
		if entry.Known {
			return entry.Score
		}
		if math.IsInf(minKnown, 1) {
			return 0
		}
		return minKnown
	}

	sorted := make([]RankedTerm, len(ranked))
	copy(sorted, ranked)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := rankScore(sorted[i]), rankScore(sorted[j])
		if si != sj {
			return si > sj
		}
		if sorted[i].Known != sorted[j].Known {
			return !sorted[i].Known
		}
		return sorted[i].Order < sorted[j].Order
	})

	var failures []error
	var b strings.Builder
	b.WriteString("# Study Sheet\n\n")
	fmt.Fprintf(&b, "_Generated %s. Hardest material first._\n\n", time.Now().UTC().Format("2006-01-02"))

	var undefined []*domain.KeyTerm
	for _, entry := range sorted {
		term := entry.Term
		if !term.Defined() {
			undefined = append(undefined, term)
			continue
		}

		fmt.Fprintf(&b, "## %s\n\n", strings.TrimSpace(term.Term))
		fmt.Fprintf(&b, "**Definition:** %s\n\n", term.Definition)

		prose, err := c.composeSection(ctx, term)
		if err != nil {
			c.logger.WarnContext(ctx, "section composition failed",
				"term", term.Canonical(),
				"error", err)
			failures = append(failures, fmt.Errorf("section %q: %w", term.Canonical(), err))
			continue
		}
		if prose != "" {
			b.WriteString(prose)
			b.WriteString("\n\n")
		}
	}

	if len(undefined) > 0 {
		b.WriteString("## Needs your own answer\n\n")
		b.WriteString("No reliable definition was found for these terms. Review them against the source material directly.\n\n")
		for _, term := range undefined {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(term.Term))
		}
		b.WriteString("\n")
	}

	return b.String(), failures
}

// composeSection retrieves context for one term and asks the model for a
// short explanatory passage grounded in it.
func (c *Composer) composeSection(ctx context.Context, term *domain.KeyTerm) (string, error) {
	chunks, err := c.retriever.Query(ctx, term.Term+" "+term.Definition, c.contextChunks)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	// Source-extracted material outranks web-enriched snippets at equal
	// relevance.
	sort.SliceStable(chunks, func(i, j int) bool {
		pi := chunks[i].Chunk.Provenance == domain.ProvenanceSource
		pj := chunks[j].Chunk.Provenance == domain.ProvenanceSource
		return pi && !pj
	})

	var contextText strings.Builder
	for _, sc := range chunks {
		contextText.WriteString(sc.Chunk.Text)
		contextText.WriteString("\n---\n")
	}

	prose, err := c.generator.Compose(ctx, sectionPrompt(term, contextText.String()))
	if err != nil {
		return "", err
	}
	return Sanitize(prose), nil
}

func sectionPrompt(term *domain.KeyTerm, context string) string {
	var b strings.Builder
	b.WriteString("Write a concise study explanation of the term below for an exam cheat sheet.\n")
	b.WriteString("Use only the provided source context. Two short paragraphs at most.\n")
	b.WriteString("Output plain prose only: no headings, no code fences, no preamble.\n\n")
	fmt.Fprintf(&b, "Term: %s\nDefinition: %s\n\nSource context:\n%s", term.Term, term.Definition, context)
	return b.String()
}
