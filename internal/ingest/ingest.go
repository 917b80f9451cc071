// Package ingest converts heterogeneous source documents into normalized
// plain text, with a local fallback path when the remote conversion service
// fails.
package ingest

import (
	"context"
	"errors"
)

// Conversion errors. Converter implementations wrap these so the normalizer
// can decide whether a fallback is worthwhile.
var (
	// ErrConvertTimeout is returned when the remote service did not answer
	// in time.
	ErrConvertTimeout = errors.New("conversion service timed out")

	// ErrConvertUnavailable is returned when the remote service is
	// unreachable or not configured.
	ErrConvertUnavailable = errors.New("conversion service unavailable")

	// ErrConvertEmpty is returned when conversion succeeded but produced
	// no text. Empty output is a failure, not a success.
	ErrConvertEmpty = errors.New("conversion produced empty output")

	// ErrUnreadable is returned by the local extractor when it cannot make
	// sense of the file.
	ErrUnreadable = errors.New("document unreadable")
)

// Converted is the output of one successful conversion.
type Converted struct {
	Text      string
	PageCount int
}

// Converter is the remote document-structuring service (primary path).
type Converter interface {
	// Convert turns the document at the given path or URL into plain text.
	Convert(ctx context.Context, source string) (*Converted, error)
}

// LocalExtractor is the local text-extraction fallback used when the remote
// path fails or is not configured.
type LocalExtractor interface {
	// Extract reads the local file and returns its plain text.
	Extract(ctx context.Context, path string) (*Converted, error)
}
