// Package domain defines the core pipeline entities and errors.
package domain

import "errors"

// Common domain errors used across the application. Each maps to one branch
// of the pipeline's failure taxonomy; callers branch with errors.Is.
var (
	// ErrIngestion is returned when a document is unreadable by every
	// extraction path. Non-fatal: the run continues with other documents.
	ErrIngestion = errors.New("document ingestion failed")

	// ErrExtraction is returned when term extraction fails for a document
	// or the model output cannot be parsed. Non-fatal: degrades coverage.
	ErrExtraction = errors.New("term extraction failed")

	// ErrEnrichment is returned when an external definition lookup fails.
	// Non-fatal: the term stays undefined.
	ErrEnrichment = errors.New("definition enrichment failed")

	// ErrValidation is returned when a produced card or term violates
	// schema invariants. The offending item is dropped, never the run.
	ErrValidation = errors.New("validation failed")

	// ErrStore is returned when the persistent knowledge store is
	// unavailable. Fatal: nothing downstream can proceed without it.
	ErrStore = errors.New("knowledge store unavailable")

	// ErrReviewLogFormat is returned when an exported review log cannot be
	// parsed. Fatal for the difficulty pipeline only.
	ErrReviewLogFormat = errors.New("review log unparseable")
)
