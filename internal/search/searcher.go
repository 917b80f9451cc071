// Package search defines the boundary to the external web-search capability
// used for definition enrichment.
package search

import (
	"context"
	"errors"
)

// Common errors returned by Searcher implementations.
var (
	// ErrNotFound is returned when the provider has no usable answer.
	ErrNotFound = errors.New("no search result found")

	// ErrUnavailable is returned when the provider is unreachable or not
	// configured. Enrichment degrades; it never fails the run.
	ErrUnavailable = errors.New("search provider unavailable")
)

// Result is one snippet returned by a lookup.
type Result struct {
	Answer string
	URL    string
}

// Searcher performs external lookups for terms whose definitions could not
// be grounded in the source material.
type Searcher interface {
	// Lookup returns the best available snippet for the query.
	Lookup(ctx context.Context, query string) (*Result, error)
}
