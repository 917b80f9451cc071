// Command studybuddy turns study material into a flashcard deck and, given
// exported review history, a difficulty-ranked study sheet.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/deck"
	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/enrich"
	"github.com/studybuddy-ai/studybuddy/internal/extract"
	"github.com/studybuddy-ai/studybuddy/internal/ingest"
	"github.com/studybuddy-ai/studybuddy/internal/knowledge"
	"github.com/studybuddy-ai/studybuddy/internal/pipeline"
	"github.com/studybuddy-ai/studybuddy/internal/platform/firecrawl"
	"github.com/studybuddy-ai/studybuddy/internal/platform/gemini"
	"github.com/studybuddy-ai/studybuddy/internal/platform/logger"
	"github.com/studybuddy-ai/studybuddy/internal/platform/tavily"
	"github.com/studybuddy-ai/studybuddy/internal/review"
	"github.com/studybuddy-ai/studybuddy/internal/search"
	"github.com/studybuddy-ai/studybuddy/internal/sheet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studybuddy",
		Short:         "Build flashcard decks and study sheets from source material",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDeckCmd(), newSheetCmd(), newResetCmd())
	return root
}

func newDeckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deck <source>...",
		Short: "Process documents into a deduplicated flashcard deck",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			artifacts, err := app.pipeline.RunDeckPipeline(cmd.Context(), args)
			reportRun(cmd, app.logger, artifacts)
			return err
		},
	}
}

func newSheetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheet <review-log.json>",
		Short: "Rank deck cards by review difficulty and compose a study sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			artifacts, err := app.pipeline.RunDifficultyPipeline(cmd.Context(), args[0])
			reportRun(cmd, app.logger, artifacts)
			return err
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the knowledge index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.store.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("resetting knowledge index: %w", err)
			}
			cmd.Println("Knowledge index cleared.")
			return nil
		},
	}
}

// app bundles the wired pipeline with the resources it owns.
type app struct {
	logger   *slog.Logger
	store    *knowledge.Store
	pipeline *pipeline.Pipeline
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing knowledge store", "error", err)
	}
}

// buildApp loads configuration and wires every component. The remote
// converter and web search are optional: without their API keys the
// pipeline runs on local extraction alone and skips enrichment.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.Setup(cfg.LogLevel)

	llm, err := gemini.NewClient(ctx, log, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	store, err := knowledge.NewStore(cfg.Store.Path, llm, log)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge store: %w", err)
	}

	var converter ingest.Converter
	if cfg.Convert.APIKey != "" {
		fc, err := firecrawl.NewConverter(log, cfg.Convert)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("creating converter: %w", err)
		}
		converter = fc
	} else {
		log.Info("no conversion API key configured, using local extraction only")
	}

	normalizer, err := ingest.NewNormalizer(converter, ingest.NewFileExtractor(), log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating normalizer: %w", err)
	}

	extractor, err := extract.NewExtractor(llm, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating extractor: %w", err)
	}

	var enricher pipeline.Enricher
	if cfg.Search.APIKey != "" {
		var searcher search.Searcher
		searcher, err = tavily.NewSearcher(log, cfg.Search)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("creating searcher: %w", err)
		}
		resolver, err := enrich.NewResolver(searcher, store, log)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("creating enrichment resolver: %w", err)
		}
		enricher = resolver
	} else {
		log.Info("no search API key configured, skipping enrichment")
	}

	synthesizer, err := deck.NewSynthesizer(llm, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating card synthesizer: %w", err)
	}

	composer, err := sheet.NewComposer(llm, store, cfg.Scoring.ContextChunks, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating sheet composer: %w", err)
	}

	chunker := knowledge.NewChunker(cfg.Store.ChunkSize, cfg.Store.ChunkOverlap)
	scorer := review.NewScorer(cfg.Scoring)

	p, err := pipeline.New(cfg, log, normalizer, chunker, store, extractor, enricher,
		synthesizer, composer, scorer, extract.MergeTerms)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("assembling pipeline: %w", err)
	}

	return &app{logger: log, store: store, pipeline: p}, nil
}

// reportRun prints the run outcome for humans; the structured log already
// carries the details.
func reportRun(cmd *cobra.Command, log *slog.Logger, artifacts *domain.WorkflowArtifacts) {
	if artifacts == nil {
		return
	}
	cmd.Printf("Run %s: %s\n", artifacts.RunID, artifacts.Status)
	if artifacts.Status != domain.RunFailed {
		cmd.Printf("  documents: %d  terms: %d  cards: %d\n",
			artifacts.DocumentsProcessed, artifacts.TermsExtracted, artifacts.CardsCreated)
	}
	for name, path := range artifacts.Files {
		cmd.Printf("  %s: %s\n", name, path)
	}
	for _, failure := range artifacts.Failures {
		cmd.Printf("  failed [%s] %s: %s\n", failure.Stage, failure.Item, failure.Err)
	}
	if len(artifacts.Failures) > 0 {
		log.Warn("run completed with failures", "count", len(artifacts.Failures))
	}
}
