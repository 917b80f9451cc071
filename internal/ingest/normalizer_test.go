package ingest_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
	"github.com/studybuddy-ai/studybuddy/internal/ingest"
)

type stubConverter struct {
	converted *ingest.Converted
	err       error
	calls     int
}

func (s *stubConverter) Convert(_ context.Context, _ string) (*ingest.Converted, error) {
	s.calls++
	return s.converted, s.err
}

type stubExtractor struct {
	converted *ingest.Converted
	err       error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*ingest.Converted, error) {
	return s.converted, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNormalizeRemoteSuccessForURL(t *testing.T) {
	t.Parallel()

	conv := &stubConverter{converted: &ingest.Converted{Text: "Remote text.", PageCount: 3}}
	n, err := ingest.NewNormalizer(conv, &stubExtractor{err: ingest.ErrUnreadable}, discardLogger())
	require.NoError(t, err)

	doc, err := n.Normalize(context.Background(), "https://example.com/slides.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionRemote, doc.Method)
	assert.Equal(t, "Remote text.", doc.Text)
	assert.Equal(t, 3, doc.PageCount)
	assert.Equal(t, 1, conv.calls)
}

func TestNormalizeLocalFileSkipsRemote(t *testing.T) {
	t.Parallel()

	conv := &stubConverter{converted: &ingest.Converted{Text: "never used"}}
	local := &stubExtractor{converted: &ingest.Converted{Text: "Local text."}}
	n, err := ingest.NewNormalizer(conv, local, discardLogger())
	require.NoError(t, err)

	path := writeTempFile(t, "notes.md", "# Notes\n\nLocal text.")
	doc, err := n.Normalize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionLocal, doc.Method)
	assert.Zero(t, conv.calls, "remote converter must not be called for local files")
}

func TestNormalizeFallsBackWhenRemoteFails(t *testing.T) {
	t.Parallel()

	conv := &stubConverter{err: ingest.ErrConvertTimeout}
	local := &stubExtractor{converted: &ingest.Converted{Text: "Fallback text."}}
	n, err := ingest.NewNormalizer(conv, local, discardLogger())
	require.NoError(t, err)

	doc, err := n.Normalize(context.Background(), "https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionLocal, doc.Method)
	assert.Equal(t, "Fallback text.", doc.Text)
}

func TestNormalizeBothPathsFail(t *testing.T) {
	t.Parallel()

	conv := &stubConverter{err: ingest.ErrConvertUnavailable}
	local := &stubExtractor{err: ingest.ErrUnreadable}
	n, err := ingest.NewNormalizer(conv, local, discardLogger())
	require.NoError(t, err)

	_, err = n.Normalize(context.Background(), "https://example.com/doc")
	assert.ErrorIs(t, err, domain.ErrIngestion)
}

func TestNormalizeEmptyOutputIsFailure(t *testing.T) {
	t.Parallel()

	local := &stubExtractor{converted: &ingest.Converted{Text: "  \n \t "}}
	n, err := ingest.NewNormalizer(nil, local, discardLogger())
	require.NoError(t, err)

	path := writeTempFile(t, "empty.txt", "  ")
	_, err = n.Normalize(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrIngestion)
}

func TestNormalizeIdenticalContentSameID(t *testing.T) {
	t.Parallel()

	local := &stubExtractor{converted: &ingest.Converted{Text: "Same content."}}
	n, err := ingest.NewNormalizer(nil, local, discardLogger())
	require.NoError(t, err)

	a := writeTempFile(t, "a.txt", "Same content.")
	b := writeTempFile(t, "b.txt", "Same content.")

	docA, err := n.Normalize(context.Background(), a)
	require.NoError(t, err)
	docB, err := n.Normalize(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, docA.ID, docB.ID, "identical raw bytes must produce identical document IDs")
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	in := "Line one.\r\n\r\n\r\n\r\nLine two.\t \nLine three."
	want := "Line one.\n\nLine two.\nLine three."
	assert.Equal(t, want, ingest.CleanText(in))
}

func TestCleanTextInvalidUTF8(t *testing.T) {
	t.Parallel()

	out := ingest.CleanText("ok\xffbad")
	assert.True(t, len(out) > 0)
	assert.NotContains(t, out, "\xff")
}
