package deck

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

func sampleCards(t *testing.T) []*domain.Flashcard {
	t.Helper()
	a, err := domain.NewFlashcard("What is Raft?", "A consensus\nalgorithm.", []string{"study_bot"}, "raft")
	require.NoError(t, err)
	b, err := domain.NewFlashcard("What is a quorum?", "A majority of voters.", nil, "")
	require.NoError(t, err)
	return []*domain.Flashcard{a, b}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteJSON(dir, sampleCards(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DeckJSONName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var file deckFile
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Equal(t, 2, file.CardCount)
	require.Len(t, file.Cards, 2)
	assert.Equal(t, "What is Raft?", file.Cards[0].Front)
}

func TestWriteTSVFlattensFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteTSV(dir, sampleCards(t))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 3)
	assert.Equal(t, "A consensus algorithm.", fields[1])
	assert.Equal(t, "study_bot", fields[2])
}

func TestWriteSummaryIncludesFailures(t *testing.T) {
	t.Parallel()

	artifacts := domain.NewWorkflowArtifacts()
	artifacts.DocumentsProcessed = 2
	artifacts.TermsExtracted = 5
	artifacts.CardsCreated = 7
	artifacts.RecordFailure("ingest", "broken.pdf", errors.New("unreadable"))
	artifacts.Finalize(false)

	dir := t.TempDir()
	path, err := WriteSummary(dir, artifacts, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Status: partially_succeeded")
	assert.Contains(t, text, "[ingest] broken.pdf: unreadable")
	assert.Contains(t, text, "Cards created: 7")
	assert.NotContains(t, text, "## Overview")
}

func TestWriteSummaryIncludesOverview(t *testing.T) {
	t.Parallel()

	artifacts := domain.NewWorkflowArtifacts()
	artifacts.Finalize(false)

	dir := t.TempDir()
	path, err := WriteSummary(dir, artifacts, "The material covers cell division and energy metabolism.")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "## Overview")
	assert.Contains(t, text, "cell division and energy metabolism")
}
