package knowledge

import (
	"strings"
)

// Chunker splits normalized document text into overlapping windows. The
// overlap preserves context that straddles a boundary; window cuts prefer
// paragraph, then line, then word breaks over mid-word splits.
type Chunker struct {
	size    int // target window size in runes
	overlap int // runes carried over into the next window
}

// NewChunker builds a Chunker. Invalid values fall back to safe defaults
// (1000/200); overlap is clamped below half the window size so consecutive
// windows always advance.
func NewChunker(size, overlap int) *Chunker {
	if size < 100 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size/2 {
		overlap = size / 4
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split returns the chunk texts for one document in order. Empty input
// yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := breakPoint(runes[start:end]); cut > c.size/2 {
			end = start + cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// breakPoint finds the best cut position within a window, scanning backwards
// for a paragraph break, then a line break, then a space.
func breakPoint(window []rune) int {
	s := string(window)
	for _, sep := range []string{"\n\n", "\n", " "} {
		if idx := strings.LastIndex(s, sep); idx > 0 {
			return len([]rune(s[:idx]))
		}
	}
	return len(window)
}
