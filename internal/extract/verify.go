package extract

import (
	"strings"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

// groundingThreshold is the minimum fraction of a definition's content words
// that must appear in one source chunk for the definition to count as
// grounded when no exact substring match exists.
const groundingThreshold = 0.7

// groundDefinition checks that a proposed definition is actually supported by
// the source text. It returns the ID of the best supporting chunk (empty when
// grounding succeeded against the whole document) and whether the definition
// is grounded.
//
// Exact normalized substring containment is tried first; otherwise a token
// overlap against each originating chunk decides. This is a heuristic: it
// rejects whole-cloth fabrications, not subtle paraphrase errors.
func groundDefinition(definition string, doc *domain.SourceDocument, chunks []*domain.TextChunk) (string, bool) {
	normDef := domain.NormalizeText(definition)
	if normDef == "" {
		return "", false
	}

	if strings.Contains(domain.NormalizeText(doc.Text), normDef) {
		return "", true
	}

	defTokens := contentWords(normDef)
	if len(defTokens) == 0 {
		return "", false
	}

	bestID := ""
	bestOverlap := 0.0
	for _, chunk := range chunks {
		overlap := tokenOverlap(defTokens, contentWords(domain.NormalizeText(chunk.Text)))
		if overlap > bestOverlap {
			bestOverlap = overlap
			bestID = chunk.ID
		}
	}

	if bestOverlap >= groundingThreshold {
		return bestID, true
	}
	return "", false
}

// contentWords tokenizes normalized text, dropping short stop-like words
// that would inflate overlap scores.
func contentWords(normalized string) []string {
	fields := strings.Fields(normalized)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if len(f) > 3 {
			words = append(words, f)
		}
	}
	return words
}

// tokenOverlap returns the fraction of def tokens present in the chunk token
// set.
func tokenOverlap(def, chunk []string) float64 {
	if len(def) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(chunk))
	for _, w := range chunk {
		set[w] = struct{}{}
	}
	hits := 0
	for _, w := range def {
		if _, ok := set[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(def))
}
