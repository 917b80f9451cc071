// Package generation defines the boundary to external AI/LLM services. It
// abstracts the details of model API integration (Gemini), allowing the
// pipeline to propose terms, author flashcards, and compose study-sheet prose
// without coupling to a specific provider.
package generation
