package deck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

// Artifact file names placed under the run's output directory.
const (
	DeckJSONName  = "deck.json"
	DeckTSVName   = "deck.tsv"
	TermsJSONName = "terms.json"
	SummaryName   = "summary.md"
)

// deckFile is the on-disk shape of deck.json.
type deckFile struct {
	GeneratedAt time.Time          `json:"generated_at"`
	CardCount   int                `json:"card_count"`
	Cards       []*domain.Flashcard `json:"cards"`
}

// WriteJSON writes the machine-readable deck artifact and returns its path.
func WriteJSON(dir string, cards []*domain.Flashcard) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, DeckJSONName)
	data, err := json.MarshalIndent(deckFile{
		GeneratedAt: time.Now().UTC(),
		CardCount:   len(cards),
		Cards:       cards,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding deck: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", DeckJSONName, err)
	}
	return path, nil
}

// ReadJSON loads a previously written deck artifact. The difficulty
// pipeline uses it to rank an existing deck against review history without
// regenerating cards.
func ReadJSON(path string) ([]*domain.Flashcard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck: %w", err)
	}
	var file deckFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding deck: %w", err)
	}
	for _, card := range file.Cards {
		if err := card.Validate(); err != nil {
			return nil, fmt.Errorf("deck contains invalid card %q: %w", card.ID, err)
		}
	}
	return file.Cards, nil
}

// WriteTSV writes a front/back/tags sheet importable by common flashcard
// tools. Tabs and newlines inside fields are flattened to spaces.
func WriteTSV(dir string, cards []*domain.Flashcard) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, DeckTSVName)
	var b strings.Builder
	for _, card := range cards {
		b.WriteString(flatten(card.Front))
		b.WriteByte('\t')
		b.WriteString(flatten(card.Back))
		b.WriteByte('\t')
		b.WriteString(strings.Join(card.Tags, " "))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", DeckTSVName, err)
	}
	return path, nil
}

// WriteTerms persists the merged key-term set, undefined terms included, so
// a later difficulty run can rank and report them without re-extraction.
func WriteTerms(dir string, terms []*domain.KeyTerm) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, TermsJSONName)
	data, err := json.MarshalIndent(terms, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding terms: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", TermsJSONName, err)
	}
	return path, nil
}

// ReadTerms loads a previously written term artifact.
func ReadTerms(path string) ([]*domain.KeyTerm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading terms: %w", err)
	}
	var terms []*domain.KeyTerm
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("decoding terms: %w", err)
	}
	return terms, nil
}

// WriteSummary writes a human-readable run summary and returns its path.
// overview is the model-composed description of the material; when empty
// (difficulty runs, or the summary call failed) the file carries statistics
// only.
func WriteSummary(dir string, artifacts *domain.WorkflowArtifacts, overview string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, SummaryName)
	var b strings.Builder
	fmt.Fprintf(&b, "# Study Run %s\n\n", artifacts.RunID)
	if overview != "" {
		b.WriteString("## Overview\n\n")
		b.WriteString(overview)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "- Status: %s\n", artifacts.Status)
	fmt.Fprintf(&b, "- Started: %s\n", artifacts.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Finished: %s\n", artifacts.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Documents processed: %d\n", artifacts.DocumentsProcessed)
	fmt.Fprintf(&b, "- Terms extracted: %d\n", artifacts.TermsExtracted)
	fmt.Fprintf(&b, "- Cards created: %d\n", artifacts.CardsCreated)
	if len(artifacts.Failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, f := range artifacts.Failures {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Stage, f.Item, f.Err)
		}
	}
	if len(artifacts.Files) > 0 {
		b.WriteString("\n## Artifacts\n\n")
		for name, p := range artifacts.Files {
			fmt.Fprintf(&b, "- %s: %s\n", name, p)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", SummaryName, err)
	}
	return path, nil
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
