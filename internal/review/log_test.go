package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

func TestParseLogAppliesDefaults(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"card_id": "abc", "front": "What is Raft?"},
		{"card_id": "def", "ease_factor": 1.3, "interval_days": 21, "lapses": 4, "reviews": 30}
	]`)

	records, err := ParseLog(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.DefaultEaseFactor, records[0].EaseFactor)
	assert.Zero(t, records[0].IntervalDays)
	assert.Zero(t, records[0].Lapses)

	assert.Equal(t, 1.3, records[1].EaseFactor)
	assert.Equal(t, 21.0, records[1].IntervalDays)
	assert.Equal(t, 4, records[1].Lapses)
}

func TestParseLogZeroEaseIsNotDefaulted(t *testing.T) {
	t.Parallel()

	records, err := ParseLog([]byte(`[{"card_id": "abc", "ease_factor": 0}]`))
	require.NoError(t, err)
	assert.Zero(t, records[0].EaseFactor)
}

func TestParseLogRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseLog([]byte(`{"not": "an array"}`))
	assert.ErrorIs(t, err, domain.ErrReviewLogFormat)
}

func TestParseLogRejectsUnidentifiableRecord(t *testing.T) {
	t.Parallel()

	_, err := ParseLog([]byte(`[{"ease_factor": 2.5}]`))
	assert.ErrorIs(t, err, domain.ErrReviewLogFormat)
}

func TestLoadLogMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadLog(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, domain.ErrReviewLogFormat)
}

func TestLoadLogReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"card_id": "abc"}]`), 0o644))

	records, err := LoadLog(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
