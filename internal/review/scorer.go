package review

import (
	"math"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

// Scorer computes a difficulty score in [0,1] for reviewed cards. Higher
// means the learner struggles more: low ease, many lapses, and short
// intervals all push the score up.
type Scorer struct {
	easeWeight     float64
	lapseWeight    float64
	intervalWeight float64
	maxEase        float64
	lapseCap       float64
}

// NewScorer builds a Scorer from the scoring policy. Config validation has
// already checked the weights sum to 1.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		easeWeight:     cfg.EaseWeight,
		lapseWeight:    cfg.LapseWeight,
		intervalWeight: cfg.IntervalWeight,
		maxEase:        cfg.MaxEase,
		lapseCap:       float64(cfg.LapseCap),
	}
}

// Score is a pure function of one review record. Ease factors above maxEase
// and negative intervals are clamped rather than rejected; exports from
// real schedulers contain both.
func (s *Scorer) Score(rec domain.ReviewRecord) float64 {
	ease := math.Min(math.Max(rec.EaseFactor, 0), s.maxEase)
	easePart := (s.maxEase - ease) / s.maxEase

	lapsePart := math.Min(float64(rec.Lapses)/s.lapseCap, 1)

	interval := math.Max(rec.IntervalDays, 0)
	intervalPart := 1 / (1 + interval)

	return s.easeWeight*easePart + s.lapseWeight*lapsePart + s.intervalWeight*intervalPart
}

// ScoredCard pairs a deck card with its difficulty. Known reports whether
// any review record matched; unknown cards keep a zero score and are placed
// relative to the known scores at sort time, after everything the learner
// has demonstrably struggled with but ahead of cards the history shows are
// easy.
type ScoredCard struct {
	Card  *domain.Flashcard
	Score float64
	Known bool
}

// ScoreDeck matches review records to cards by stable ID first, then by
// normalized front text, and scores the matches. Cards with no matching
// record come back with Known false and a zero score. It returns the scored
// deck in input order plus the fronts of records that matched no card.
func (s *Scorer) ScoreDeck(cards []*domain.Flashcard, records []domain.ReviewRecord) ([]ScoredCard, []string) {
	byID := make(map[string]int, len(records))
	byFront := make(map[string]int, len(records))
	matched := make([]bool, len(records))
	for i, rec := range records {
		if rec.CardID != "" {
			byID[rec.CardID] = i
		}
		if rec.Front != "" {
			byFront[domain.NormalizeText(rec.Front)] = i
		}
	}

	scored := make([]ScoredCard, 0, len(cards))
	for _, card := range cards {
		idx, ok := byID[card.ID]
		if !ok {
			idx, ok = byFront[card.CanonicalFront()]
		}
		if !ok {
			scored = append(scored, ScoredCard{Card: card})
			continue
		}
		matched[idx] = true
		scored = append(scored, ScoredCard{Card: card, Score: s.Score(records[idx]), Known: true})
	}

	var unmatched []string
	for i, rec := range records {
		if matched[i] {
			continue
		}
		label := rec.Front
		if label == "" {
			label = rec.CardID
		}
		unmatched = append(unmatched, label)
	}
	return scored, unmatched
}
