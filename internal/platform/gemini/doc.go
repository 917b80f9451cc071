// Package gemini implements the generation.Generator and generation.Embedder
// interfaces using Google's Gemini API.
//
// All calls go through a shared retry wrapper with exponential backoff and
// jitter. Transient API failures are retried up to the configured limit;
// permanent failures (malformed JSON, safety blocks, empty responses) return
// immediately.
package gemini
