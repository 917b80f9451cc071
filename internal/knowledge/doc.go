// Package knowledge implements the chunked, embedded, content-addressed
// index that backs retrieval for term verification and study-sheet
// composition. The store is the one resource shared by concurrent pipeline
// workers; every write is idempotent and keyed by content hash.
package knowledge
