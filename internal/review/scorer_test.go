package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

func defaultScoring() config.ScoringConfig {
	return config.ScoringConfig{
		EaseWeight:     0.5,
		LapseWeight:    0.3,
		IntervalWeight: 0.2,
		MaxEase:        5.0,
		LapseCap:       10,
		ContextChunks:  4,
	}
}

func mustCard(t *testing.T, front, back string) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(front, back, nil, "")
	require.NoError(t, err)
	return card
}

func TestScoreOrdersByEase(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(defaultScoring())
	rec := func(ease float64) domain.ReviewRecord {
		return domain.ReviewRecord{EaseFactor: ease, IntervalDays: 10, Lapses: 2}
	}

	hard := scorer.Score(rec(1.5))
	medium := scorer.Score(rec(2.5))
	easy := scorer.Score(rec(4.0))

	assert.Greater(t, hard, medium)
	assert.Greater(t, medium, easy)
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(defaultScoring())

	worst := scorer.Score(domain.ReviewRecord{EaseFactor: 0, IntervalDays: 0, Lapses: 100})
	best := scorer.Score(domain.ReviewRecord{EaseFactor: 9.0, IntervalDays: 365, Lapses: 0})

	assert.InDelta(t, 1.0, worst, 1e-9)
	assert.Less(t, best, 0.01)
	assert.GreaterOrEqual(t, best, 0.0)
}

func TestScoreWeightSensitivity(t *testing.T) {
	t.Parallel()

	lapsy := domain.ReviewRecord{EaseFactor: 3.5, IntervalDays: 30, Lapses: 9}
	lowEase := domain.ReviewRecord{EaseFactor: 1.5, IntervalDays: 30, Lapses: 0}

	easeHeavy := defaultScoring()
	easeHeavy.EaseWeight, easeHeavy.LapseWeight, easeHeavy.IntervalWeight = 0.9, 0.05, 0.05
	lapseHeavy := defaultScoring()
	lapseHeavy.EaseWeight, lapseHeavy.LapseWeight, lapseHeavy.IntervalWeight = 0.05, 0.9, 0.05

	assert.Greater(t, NewScorer(easeHeavy).Score(lowEase), NewScorer(easeHeavy).Score(lapsy))
	assert.Greater(t, NewScorer(lapseHeavy).Score(lapsy), NewScorer(lapseHeavy).Score(lowEase))
}

func TestScoreDeckMatchesByIDThenFront(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(defaultScoring())
	byID := mustCard(t, "What is Raft?", "A consensus algorithm.")
	byFront := mustCard(t, "What is a quorum?", "A majority of voters.")

	records := []domain.ReviewRecord{
		{CardID: byID.ID, EaseFactor: 1.5, IntervalDays: 2, Lapses: 5},
		{Front: "what is a  QUORUM?", EaseFactor: 4.0, IntervalDays: 90},
	}

	scored, unmatched := scorer.ScoreDeck([]*domain.Flashcard{byID, byFront}, records)

	require.Len(t, scored, 2)
	assert.Empty(t, unmatched)
	assert.True(t, scored[0].Known)
	assert.True(t, scored[1].Known)
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestScoreDeckUnreviewedCardsStayUnknown(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(defaultScoring())
	hard := mustCard(t, "Hard card", "Back.")
	easy := mustCard(t, "Easy card", "Back.")
	never := mustCard(t, "Never reviewed", "Back.")

	records := []domain.ReviewRecord{
		{CardID: hard.ID, EaseFactor: 1.5, IntervalDays: 1, Lapses: 6},
		{CardID: easy.ID, EaseFactor: 4.5, IntervalDays: 120, Lapses: 0},
	}

	scored, _ := scorer.ScoreDeck([]*domain.Flashcard{hard, easy, never}, records)

	require.Len(t, scored, 3)
	assert.True(t, scored[0].Known)
	assert.True(t, scored[1].Known)
	assert.False(t, scored[2].Known)
	assert.Zero(t, scored[2].Score)
}

func TestScoreDeckReportsUnmatchedRecords(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(defaultScoring())
	card := mustCard(t, "Known card", "Back.")

	records := []domain.ReviewRecord{
		{CardID: card.ID, EaseFactor: 2.5},
		{CardID: "deadbeef", Front: "Deleted card", EaseFactor: 2.0},
	}

	scored, unmatched := scorer.ScoreDeck([]*domain.Flashcard{card}, records)

	require.Len(t, scored, 1)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "Deleted card", unmatched[0])
}

func TestScoreDeckAllUnknownScoresZero(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(defaultScoring())
	card := mustCard(t, "Anything", "Back.")

	scored, _ := scorer.ScoreDeck([]*domain.Flashcard{card}, nil)

	require.Len(t, scored, 1)
	assert.False(t, scored[0].Known)
	assert.Zero(t, scored[0].Score)
}
