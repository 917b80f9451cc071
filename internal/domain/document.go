package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// Document-specific validation errors.
var (
	ErrDocumentSourceEmpty = errors.New("document source cannot be empty")
	ErrDocumentTextEmpty   = errors.New("document text cannot be empty")
	ErrChunkTextEmpty      = errors.New("chunk text cannot be empty")
)

// ExtractionMethod records which conversion path produced a document's text.
type ExtractionMethod string

const (
	// ExtractionRemote means the remote structuring service succeeded.
	ExtractionRemote ExtractionMethod = "remote"

	// ExtractionLocal means the local fallback extractor was used.
	ExtractionLocal ExtractionMethod = "local"
)

// SourceDocument is one normalized input document. Its identity is the
// content hash of the raw bytes, so re-processing identical input yields the
// same document ID. Immutable after normalization.
type SourceDocument struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"` // origin path or URL
	Text      string           `json:"text"`
	Method    ExtractionMethod `json:"method"`
	PageCount int              `json:"page_count,omitempty"`
}

// NewSourceDocument builds a SourceDocument from raw input bytes and the
// normalized text extracted from them. Returns an error if validation fails.
func NewSourceDocument(source string, raw []byte, text string, method ExtractionMethod) (*SourceDocument, error) {
	doc := &SourceDocument{
		ID:     ContentHash(raw),
		Source: source,
		Text:   text,
		Method: method,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the SourceDocument invariants.
func (d *SourceDocument) Validate() error {
	if strings.TrimSpace(d.Source) == "" {
		return ErrDocumentSourceEmpty
	}
	if strings.TrimSpace(d.Text) == "" {
		return ErrDocumentTextEmpty
	}
	return nil
}

// TextChunk is a span of a SourceDocument's text. Identity is the hash of
// the normalized chunk text, which makes knowledge-store upserts idempotent.
type TextChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Text       string    `json:"text"`
	Source     string    `json:"source"`
	Provenance Provenance `json:"provenance"`
	Embedding  []float32 `json:"-"` // opaque to the core; filled by the store
}

// NewTextChunk builds a chunk whose ID is derived from its normalized text.
func NewTextChunk(documentID, source, text string, seq int, provenance Provenance) (*TextChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrChunkTextEmpty
	}
	return &TextChunk{
		ID:         ContentHash([]byte(NormalizeText(text))),
		DocumentID: documentID,
		Seq:        seq,
		Text:       text,
		Source:     source,
		Provenance: provenance,
	}, nil
}

// ContentHash returns the hex sha256 of the given bytes. Used for document,
// chunk, and card identity so identical content always hashes identically.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeText lowercases text and collapses all runs of whitespace to a
// single space. It is the canonical form for identity comparisons on terms,
// card fronts, and chunk content.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
