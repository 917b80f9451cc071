// Package review imports exported spaced-repetition history and scores
// cards by how much the learner struggles with them.
package review

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

// rawRecord mirrors the export format with pointer fields so we can tell
// "absent" from "zero" when applying defaults.
type rawRecord struct {
	CardID       string   `json:"card_id"`
	Front        string   `json:"front"`
	EaseFactor   *float64 `json:"ease_factor"`
	IntervalDays *float64 `json:"interval_days"`
	Lapses       *int     `json:"lapses"`
	Reviews      *int     `json:"reviews"`
}

// LoadLog reads a review-history export: a JSON array of per-card records.
// Missing optional fields take the documented defaults (ease 2.5, interval 0,
// lapses 0). A log that cannot be parsed as JSON, or whose records carry
// neither a card ID nor a front, fails with domain.ErrReviewLogFormat.
func LoadLog(path string) ([]domain.ReviewRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrReviewLogFormat, path, err)
	}
	return ParseLog(data)
}

// ParseLog decodes the review-history JSON.
func ParseLog(data []byte) ([]domain.ReviewRecord, error) {
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReviewLogFormat, err)
	}

	records := make([]domain.ReviewRecord, 0, len(raw))
	for i, r := range raw {
		if r.CardID == "" && r.Front == "" {
			return nil, fmt.Errorf("%w: record %d has neither card_id nor front", domain.ErrReviewLogFormat, i)
		}
		rec := domain.ReviewRecord{
			CardID:     r.CardID,
			Front:      r.Front,
			EaseFactor: domain.DefaultEaseFactor,
		}
		if r.EaseFactor != nil {
			rec.EaseFactor = *r.EaseFactor
		}
		if r.IntervalDays != nil {
			rec.IntervalDays = *r.IntervalDays
		}
		if r.Lapses != nil {
			rec.Lapses = *r.Lapses
		}
		if r.Reviews != nil {
			rec.Reviews = *r.Reviews
		}
		records = append(records, rec)
	}
	return records, nil
}
