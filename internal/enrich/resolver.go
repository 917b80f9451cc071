// Package enrich fills missing term definitions through the external
// web-search capability and feeds findings back into the knowledge store so
// later retrieval can cite them.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/knowledge"
	"github.com/studybuddy-ai/studybuddy/internal/search"
)

// maxDefinitionLength bounds a looked-up definition; provider snippets can
// run to whole page extracts.
const maxDefinitionLength = 500

// ChunkWriter is the slice of the knowledge store the resolver needs.
type ChunkWriter interface {
	Upsert(ctx context.Context, chunks []*domain.TextChunk) error
}

var _ ChunkWriter = (*knowledge.Store)(nil)

// Resolver looks up definitions for terms that survived extraction without
// a grounded definition.
type Resolver struct {
	searcher search.Searcher
	store    ChunkWriter
	logger   *slog.Logger
}

// NewResolver wires a Resolver. searcher may be nil when the provider is not
// configured; Resolve then reports search.ErrUnavailable for every term.
func NewResolver(searcher search.Searcher, store ChunkWriter, logger *slog.Logger) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("chunk writer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Resolver{searcher: searcher, store: store, logger: logger}, nil
}

// Resolve finds a definition for the term via external lookup. On success it
// mutates the term in place (definition, web provenance, enrichment flag
// cleared) and upserts the snippet into the knowledge store. On failure the
// term is left untouched and the returned error wraps domain.ErrEnrichment;
// the term still flows downstream, flagged rather than dropped.
func (r *Resolver) Resolve(ctx context.Context, term *domain.KeyTerm) error {
	if r.searcher == nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrEnrichment, term.Term, search.ErrUnavailable)
	}

	query := fmt.Sprintf("define %s definition meaning", term.Term)
	result, err := r.searcher.Lookup(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrEnrichment, term.Term, err)
	}

	definition := truncateDefinition(result.Answer, maxDefinitionLength)

	chunkText := fmt.Sprintf("Term: %s\nDefinition: %s", term.Term, definition)
	chunk, err := domain.NewTextChunk("", "web:"+term.Canonical(), chunkText, 0, domain.ProvenanceWeb)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrEnrichment, term.Term, err)
	}
	if err := r.store.Upsert(ctx, []*domain.TextChunk{chunk}); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrEnrichment, term.Term, err)
	}

	term.Definition = definition
	term.Provenance = domain.ProvenanceWeb
	term.NeedsEnrichment = false
	term.ChunkIDs = append(term.ChunkIDs, chunk.ID)

	r.logger.InfoContext(ctx, "term enriched from web",
		"term", term.Term,
		"definition_length", len(definition))
	return nil
}

// truncateDefinition caps the definition at max bytes without splitting a
// multibyte rune; a torn rune would poison the content hashes derived from
// this text downstream.
func truncateDefinition(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
