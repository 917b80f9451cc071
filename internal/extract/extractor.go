// Package extract derives grounded key terms from normalized documents using
// a two-phase flow: the language model proposes candidate (term, definition)
// pairs, then every proposed definition is verified against the source text.
// Ungrounded definitions are discarded and the term re-flagged for
// enrichment, so fabricated definitions never reach the deck.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/generation"
)

// Extractor runs the propose/verify state machine for one document batch.
type Extractor struct {
	generator generation.Generator
	logger    *slog.Logger
}

// NewExtractor wires an Extractor.
func NewExtractor(generator generation.Generator, logger *slog.Logger) (*Extractor, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	return &Extractor{generator: generator, logger: logger}, nil
}

// ExtractDocument runs both phases for a single document and returns its
// verified terms in proposal order. A model failure degrades to zero terms
// for this document; the error wraps domain.ErrExtraction so the caller can
// record it without aborting sibling documents.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *domain.SourceDocument, chunks []*domain.TextChunk) ([]*domain.KeyTerm, error) {
	candidates, err := e.generator.ProposeTerms(ctx, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, doc.Source, err)
	}

	terms := make([]*domain.KeyTerm, 0, len(candidates))
	for i, cand := range candidates {
		term := &domain.KeyTerm{
			Term:       cand.Term,
			Definition: cand.Definition,
			Context:    cand.Context,
			Provenance: domain.ProvenanceSource,
			Order:      i,
		}
		if err := term.Validate(); err != nil {
			e.logger.DebugContext(ctx, "dropping invalid term candidate",
				"source", doc.Source,
				"term", cand.Term,
				"error", err)
			continue
		}

		if term.Defined() {
			chunkID, grounded := groundDefinition(term.Definition, doc, chunks)
			if grounded {
				term.Confidence = 1.0
				if chunkID != "" {
					term.ChunkIDs = []string{chunkID}
				}
			} else {
				// The model invented this definition; keep the term but
				// send it to enrichment instead of trusting the text.
				e.logger.DebugContext(ctx, "discarding ungrounded definition",
					"source", doc.Source,
					"term", term.Term)
				term.Definition = ""
				term.NeedsEnrichment = true
			}
		} else {
			term.NeedsEnrichment = true
		}

		terms = append(terms, term)
	}

	e.logger.InfoContext(ctx, "extracted terms",
		"source", doc.Source,
		"proposed", len(candidates),
		"kept", len(terms))
	return terms, nil
}

// MergeTerms folds per-document term lists into one set keyed by canonical
// term string, preserving first-seen extraction order. When the same term
// reappears, the longer definition wins and ties keep the first.
func MergeTerms(batches ...[]*domain.KeyTerm) []*domain.KeyTerm {
	byCanonical := make(map[string]*domain.KeyTerm)
	var canonicalOrder []string
	next := 0

	for _, batch := range batches {
		for _, term := range batch {
			key := term.Canonical()
			if key == "" {
				continue
			}
			if existing, ok := byCanonical[key]; ok {
				existing.Merge(term)
				continue
			}
			clone := *term
			clone.Order = next
			next++
			byCanonical[key] = &clone
			canonicalOrder = append(canonicalOrder, key)
		}
	}

	merged := make([]*domain.KeyTerm, 0, len(canonicalOrder))
	for _, key := range canonicalOrder {
		merged = append(merged, byCanonical[key])
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Order < merged[j].Order })
	return merged
}
