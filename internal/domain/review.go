package domain

// DefaultEaseFactor is the scheduler baseline assigned to records that omit
// an ease factor. 2.5 is the SM-2 starting ease.
const DefaultEaseFactor = 2.5

// ReviewRecord is one card's exported review statistics. Read-only once
// imported; missing optional fields carry documented defaults (ease 2.5,
// interval 0, lapses 0).
type ReviewRecord struct {
	CardID       string  `json:"card_id"`
	Front        string  `json:"front,omitempty"`
	EaseFactor   float64 `json:"ease_factor"`
	IntervalDays float64 `json:"interval_days"`
	Lapses       int     `json:"lapses"`
	Reviews      int     `json:"reviews"`
}
