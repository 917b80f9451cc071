package domain

import (
	"errors"
	"strings"
)

// Card-specific validation errors.
var (
	ErrCardFrontEmpty = errors.New("card front cannot be empty")
	ErrCardBackEmpty  = errors.New("card back cannot be empty")
)

// MaxCardTags bounds the number of tags a card may carry. Excess tags are
// truncated, not rejected.
const MaxCardTags = 8

// Flashcard is one front/back study card. The ID is a deterministic function
// of the normalized front and back text, never a random value: regenerating a
// deck from the same material must yield identical IDs so a downstream
// spaced-repetition tool treats the import as an update, not a fork of the
// learner's existing deck.
type Flashcard struct {
	ID    string   `json:"id"`
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags,omitempty"`

	// Term is the canonical string of the originating KeyTerm, empty for
	// purely agent-authored cards.
	Term string `json:"term,omitempty"`
}

// CardID computes the stable identifier for a front/back pair. The unit
// separator keeps ("ab","c") and ("a","bc") distinct.
func CardID(front, back string) string {
	return ContentHash([]byte(NormalizeText(front) + "\x1f" + NormalizeText(back)))
}

// NewFlashcard builds a validated card with its stable identifier and
// truncated tag set.
func NewFlashcard(front, back string, tags []string, term string) (*Flashcard, error) {
	if len(tags) > MaxCardTags {
		tags = tags[:MaxCardTags]
	}
	card := &Flashcard{
		ID:    CardID(front, back),
		Front: strings.TrimSpace(front),
		Back:  strings.TrimSpace(back),
		Tags:  tags,
		Term:  term,
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// Validate checks the Flashcard schema invariants.
func (c *Flashcard) Validate() error {
	if strings.TrimSpace(c.Front) == "" {
		return ErrCardFrontEmpty
	}
	if strings.TrimSpace(c.Back) == "" {
		return ErrCardBackEmpty
	}
	return nil
}

// CanonicalFront returns the front text normalized for deduplication.
func (c *Flashcard) CanonicalFront() string {
	return NormalizeText(c.Front)
}
