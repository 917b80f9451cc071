// Package pipeline orchestrates the end-to-end runs: sources to deck, and
// review history to study sheet. Stages run sequentially; items within a
// stage fan out under a bounded worker pool. Per-item failures accumulate on
// the run's artifacts instead of aborting sibling items.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/deck"
	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/knowledge"
	"github.com/studybuddy-ai/studybuddy/internal/review"
	"github.com/studybuddy-ai/studybuddy/internal/sheet"
)

// Stage interfaces, satisfied by the concrete packages. Narrow on purpose:
// the orchestrator only sees what it calls.
type (
	// DocumentNormalizer turns one raw source into a SourceDocument.
	DocumentNormalizer interface {
		Normalize(ctx context.Context, source string) (*domain.SourceDocument, error)
	}

	// TextChunker splits normalized text into overlapping windows.
	TextChunker interface {
		Split(text string) []string
	}

	// ChunkStore is the shared knowledge index.
	ChunkStore interface {
		Upsert(ctx context.Context, chunks []*domain.TextChunk) error
		Query(ctx context.Context, text string, k int) ([]knowledge.ScoredChunk, error)
	}

	// TermExtractor proposes and verifies key terms for one document.
	TermExtractor interface {
		ExtractDocument(ctx context.Context, doc *domain.SourceDocument, chunks []*domain.TextChunk) ([]*domain.KeyTerm, error)
	}

	// Enricher fills missing definitions from the web.
	Enricher interface {
		Resolve(ctx context.Context, term *domain.KeyTerm) error
	}

	// CardSynthesizer builds the deduplicated deck and the material overview.
	CardSynthesizer interface {
		Synthesize(ctx context.Context, terms []*domain.KeyTerm, docs []*domain.SourceDocument) ([]*domain.Flashcard, []error)
		Summarize(ctx context.Context, docs []*domain.SourceDocument) (string, error)
	}

	// SheetComposer renders the ranked study sheet.
	SheetComposer interface {
		Compose(ctx context.Context, ranked []sheet.RankedTerm) (string, []error)
	}

	// TermMerger deduplicates per-document term batches. Matches
	// extract.MergeTerms.
	TermMerger func(batches ...[]*domain.KeyTerm) []*domain.KeyTerm
)

// Pipeline wires the stages together under one configuration.
type Pipeline struct {
	cfg         *config.Config
	logger      *slog.Logger
	normalizer  DocumentNormalizer
	chunker     TextChunker
	store       ChunkStore
	extractor   TermExtractor
	enricher    Enricher // nil when web search is not configured
	synthesizer CardSynthesizer
	composer    SheetComposer
	scorer      *review.Scorer
	mergeTerms  TermMerger
}

// New assembles a Pipeline. enricher may be nil; everything else is required.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	normalizer DocumentNormalizer,
	chunker TextChunker,
	store ChunkStore,
	extractor TermExtractor,
	enricher Enricher,
	synthesizer CardSynthesizer,
	composer SheetComposer,
	scorer *review.Scorer,
	mergeTerms TermMerger,
) (*Pipeline, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config cannot be nil")
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	case normalizer == nil:
		return nil, errors.New("normalizer cannot be nil")
	case chunker == nil:
		return nil, errors.New("chunker cannot be nil")
	case store == nil:
		return nil, errors.New("store cannot be nil")
	case extractor == nil:
		return nil, errors.New("extractor cannot be nil")
	case synthesizer == nil:
		return nil, errors.New("synthesizer cannot be nil")
	case composer == nil:
		return nil, errors.New("composer cannot be nil")
	case scorer == nil:
		return nil, errors.New("scorer cannot be nil")
	case mergeTerms == nil:
		return nil, errors.New("term merger cannot be nil")
	}
	return &Pipeline{
		cfg:         cfg,
		logger:      logger,
		normalizer:  normalizer,
		chunker:     chunker,
		store:       store,
		extractor:   extractor,
		enricher:    enricher,
		synthesizer: synthesizer,
		composer:    composer,
		scorer:      scorer,
		mergeTerms:  mergeTerms,
	}, nil
}

// RunDeckPipeline processes sources into the deck artifacts. The returned
// artifacts are populated even on failure; the error is non-nil only for
// fatal conditions (zero surviving documents, store failure, artifact write
// failure).
func (p *Pipeline) RunDeckPipeline(ctx context.Context, sources []string) (*domain.WorkflowArtifacts, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Pipeline.RunTimeoutSeconds)*time.Second)
	defer cancel()

	artifacts := domain.NewWorkflowArtifacts()

	docs := p.ingestStage(ctx, artifacts, sources)
	if len(docs) == 0 {
		artifacts.Finalize(true)
		return artifacts, fmt.Errorf("%w: no documents survived ingestion", domain.ErrIngestion)
	}
	artifacts.DocumentsProcessed = len(docs)

	chunksByDoc, err := p.indexStage(ctx, docs)
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, err
	}

	terms := p.extractStage(ctx, artifacts, docs, chunksByDoc)
	artifacts.TermsExtracted = len(terms)

	p.enrichStage(ctx, artifacts, terms)

	cards, dropped := p.synthesizer.Synthesize(ctx, terms, docs)
	for _, dropErr := range dropped {
		artifacts.RecordFailure("synthesize", "card", dropErr)
	}
	artifacts.CardsCreated = len(cards)

	jsonPath, err := deck.WriteJSON(p.cfg.OutputDir, cards)
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, fmt.Errorf("writing deck artifact: %w", err)
	}
	artifacts.Files["deck"] = jsonPath

	tsvPath, err := deck.WriteTSV(p.cfg.OutputDir, cards)
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, fmt.Errorf("writing deck artifact: %w", err)
	}
	artifacts.Files["deck_tsv"] = tsvPath

	termsPath, err := deck.WriteTerms(p.cfg.OutputDir, terms)
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, fmt.Errorf("writing terms artifact: %w", err)
	}
	artifacts.Files["terms"] = termsPath

	// The material overview is best-effort: a failed summary call degrades
	// summary.md to statistics only.
	overview, err := p.synthesizer.Summarize(ctx, docs)
	if err != nil {
		artifacts.RecordFailure("summarize", "material", err)
		overview = ""
	}

	artifacts.Finalize(false)

	summaryPath, err := deck.WriteSummary(p.cfg.OutputDir, artifacts, overview)
	if err != nil {
		return artifacts, fmt.Errorf("writing run summary: %w", err)
	}
	artifacts.Files["summary"] = summaryPath

	p.logger.InfoContext(ctx, "deck pipeline finished",
		"run_id", artifacts.RunID,
		"status", artifacts.Status,
		"documents", artifacts.DocumentsProcessed,
		"terms", artifacts.TermsExtracted,
		"cards", artifacts.CardsCreated,
		"failures", len(artifacts.Failures))
	return artifacts, nil
}

// RunDifficultyPipeline ranks an existing deck against exported review
// history and renders the study sheet.
func (p *Pipeline) RunDifficultyPipeline(ctx context.Context, reviewLogPath string) (*domain.WorkflowArtifacts, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Pipeline.RunTimeoutSeconds)*time.Second)
	defer cancel()

	artifacts := domain.NewWorkflowArtifacts()

	records, err := review.LoadLog(reviewLogPath)
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, err
	}

	cards, err := deck.ReadJSON(filepath.Join(p.cfg.OutputDir, deck.DeckJSONName))
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, fmt.Errorf("loading deck for ranking: %w", err)
	}

	terms, err := deck.ReadTerms(filepath.Join(p.cfg.OutputDir, deck.TermsJSONName))
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, fmt.Errorf("loading terms for ranking: %w", err)
	}

	scored, unmatched := p.scorer.ScoreDeck(cards, records)
	for _, front := range unmatched {
		artifacts.RecordFailure("score", front, errors.New("review record matches no deck card"))
	}

	ranked := rankTerms(terms, scored)
	artifacts.TermsExtracted = len(ranked)

	markdown, composeErrs := p.composer.Compose(ctx, ranked)
	for _, composeErr := range composeErrs {
		artifacts.RecordFailure("compose", "section", composeErr)
	}

	sheetPath, err := sheet.Write(p.cfg.OutputDir, markdown)
	if err != nil {
		artifacts.Finalize(true)
		return artifacts, fmt.Errorf("writing study sheet: %w", err)
	}
	artifacts.Files["study_sheet"] = sheetPath

	artifacts.Finalize(false)

	summaryPath, err := deck.WriteSummary(p.cfg.OutputDir, artifacts, "")
	if err != nil {
		return artifacts, fmt.Errorf("writing run summary: %w", err)
	}
	artifacts.Files["summary"] = summaryPath

	p.logger.InfoContext(ctx, "difficulty pipeline finished",
		"run_id", artifacts.RunID,
		"status", artifacts.Status,
		"cards", len(cards),
		"records", len(records),
		"failures", len(artifacts.Failures))
	return artifacts, nil
}

// ingestStage normalizes sources concurrently. Output keeps the input order
// regardless of completion order; failed sources leave gaps that are
// compacted out.
func (p *Pipeline) ingestStage(ctx context.Context, artifacts *domain.WorkflowArtifacts, sources []string) []*domain.SourceDocument {
	results := make([]*domain.SourceDocument, len(sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)
	for i, source := range sources {
		g.Go(func() error {
			doc, err := p.normalizer.Normalize(gctx, source)
			if err != nil {
				mu.Lock()
				artifacts.RecordFailure("ingest", source, err)
				mu.Unlock()
				return nil
			}
			results[i] = doc
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are per-item

	docs := make([]*domain.SourceDocument, 0, len(results))
	for _, doc := range results {
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs
}

// indexStage chunks each document and upserts into the knowledge store. A
// store failure is fatal: later stages retrieve from it.
func (p *Pipeline) indexStage(ctx context.Context, docs []*domain.SourceDocument) (map[string][]*domain.TextChunk, error) {
	chunksByDoc := make(map[string][]*domain.TextChunk, len(docs))
	for _, doc := range docs {
		pieces := p.chunker.Split(doc.Text)
		chunks := make([]*domain.TextChunk, 0, len(pieces))
		for seq, piece := range pieces {
			chunk, err := domain.NewTextChunk(doc.ID, doc.Source, piece, seq, domain.ProvenanceSource)
			if err != nil {
				continue // blank window, nothing to index
			}
			chunks = append(chunks, chunk)
		}
		if err := p.store.Upsert(ctx, chunks); err != nil {
			return nil, fmt.Errorf("%w: indexing %s: %v", domain.ErrStore, doc.Source, err)
		}
		chunksByDoc[doc.ID] = chunks
	}
	return chunksByDoc, nil
}

// extractStage runs term extraction per document concurrently, then merges
// batches in canonical document order so dedup and term ordering are
// deterministic regardless of completion order.
func (p *Pipeline) extractStage(ctx context.Context, artifacts *domain.WorkflowArtifacts, docs []*domain.SourceDocument, chunksByDoc map[string][]*domain.TextChunk) []*domain.KeyTerm {
	batches := make([][]*domain.KeyTerm, len(docs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)
	for i, doc := range docs {
		g.Go(func() error {
			terms, err := p.extractor.ExtractDocument(gctx, doc, chunksByDoc[doc.ID])
			if err != nil {
				mu.Lock()
				artifacts.RecordFailure("extract", doc.Source, err)
				mu.Unlock()
				return nil
			}
			batches[i] = terms
			return nil
		})
	}
	_ = g.Wait()

	return p.mergeTerms(batches...)
}

// enrichStage resolves undefined terms via web lookup. Skipped entirely when
// no search provider is configured; failures leave the term undefined.
func (p *Pipeline) enrichStage(ctx context.Context, artifacts *domain.WorkflowArtifacts, terms []*domain.KeyTerm) {
	if p.enricher == nil {
		return
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)
	for _, term := range terms {
		if !term.NeedsEnrichment || term.Defined() {
			continue
		}
		g.Go(func() error {
			if err := p.enricher.Resolve(gctx, term); err != nil {
				mu.Lock()
				artifacts.RecordFailure("enrich", term.Canonical(), err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

// rankTerms joins the persisted term set with card difficulty scores. A
// term's score and review status come from its seeded card; terms without a
// matching scored card stay unreviewed, and the composer places them
// relative to the known scores.
func rankTerms(terms []*domain.KeyTerm, scored []review.ScoredCard) []sheet.RankedTerm {
	byTerm := make(map[string]review.ScoredCard, len(scored))
	for _, sc := range scored {
		if sc.Card.Term != "" {
			byTerm[sc.Card.Term] = sc
		}
	}

	ranked := make([]sheet.RankedTerm, 0, len(terms))
	for _, term := range terms {
		sc := byTerm[term.Canonical()]
		ranked = append(ranked, sheet.RankedTerm{
			Term:  term,
			Score: sc.Score,
			Known: sc.Known,
			Order: term.Order,
		})
	}
	return ranked
}
