package domain

import (
	"errors"
	"strings"
)

// Term-specific validation errors.
var (
	ErrTermEmpty = errors.New("term cannot be empty")
)

// Provenance records where a fact came from.
type Provenance string

const (
	// ProvenanceSource marks content extracted from the source material.
	ProvenanceSource Provenance = "source-extracted"

	// ProvenanceWeb marks content found through an external lookup.
	ProvenanceWeb Provenance = "web-enriched"
)

// KeyTerm is a vocabulary item extracted from the source material. Its
// identity within a run is the canonical term string; later writes with the
// same canonical string update the existing term rather than duplicating it.
type KeyTerm struct {
	Term       string     `json:"term"`
	Definition string     `json:"definition,omitempty"`
	Context    string     `json:"context,omitempty"`
	Provenance Provenance `json:"provenance"`
	Confidence float64    `json:"confidence"`
	ChunkIDs   []string   `json:"chunk_ids,omitempty"`

	// NeedsEnrichment is set when the proposed definition failed grounding
	// verification or was never found in the source.
	NeedsEnrichment bool `json:"needs_enrichment,omitempty"`

	// Order is the position in extraction order, used as a stable tie-break
	// in downstream ranking.
	Order int `json:"order"`
}

// Canonical returns the term string normalized for identity comparison.
func (t *KeyTerm) Canonical() string {
	return NormalizeText(t.Term)
}

// Defined reports whether the term carries a usable definition.
func (t *KeyTerm) Defined() bool {
	return strings.TrimSpace(t.Definition) != ""
}

// Validate checks the KeyTerm invariants.
func (t *KeyTerm) Validate() error {
	if t.Canonical() == "" {
		return ErrTermEmpty
	}
	return nil
}

// Merge folds another occurrence of the same canonical term into t. The
// longer, more specific definition wins; ties keep the first-seen one.
// Chunk references accumulate.
func (t *KeyTerm) Merge(other *KeyTerm) {
	if len(strings.TrimSpace(other.Definition)) > len(strings.TrimSpace(t.Definition)) {
		t.Definition = other.Definition
		t.Provenance = other.Provenance
		t.NeedsEnrichment = other.NeedsEnrichment
	}
	if other.Confidence > t.Confidence {
		t.Confidence = other.Confidence
	}
	if t.Context == "" {
		t.Context = other.Context
	}
	t.ChunkIDs = appendUnique(t.ChunkIDs, other.ChunkIDs...)
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
