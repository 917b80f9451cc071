package firecrawl

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/ingest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConverter(t *testing.T, handler http.HandlerFunc) *Converter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	conv, err := NewConverter(discardLogger(), config.ConvertConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return conv
}

func TestNewConverterRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewConverter(discardLogger(), config.ConvertConfig{})
	assert.ErrorIs(t, err, ingest.ErrConvertUnavailable)
}

func TestConvertReturnsMarkdown(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/scrape", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req scrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com/notes", req.URL)
		assert.Equal(t, []string{"markdown"}, req.Formats)

		_, _ = w.Write([]byte(`{"success": true, "data": {"markdown": "# Notes\n\nBody.", "metadata": {"numPages": 3}}}`))
	})

	converted, err := conv.Convert(context.Background(), "https://example.com/notes")
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\nBody.", converted.Text)
	assert.Equal(t, 3, converted.PageCount)
}

func TestConvertEmptyMarkdownIsFailure(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": {"markdown": ""}}`))
	})

	_, err := conv.Convert(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ingest.ErrConvertEmpty)
}

func TestConvertAPIErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream broke`))
	})

	_, err := conv.Convert(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ingest.ErrConvertUnavailable)
}

func TestConvertRejectedScrapeIsUnavailable(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": "unsupported content type"}`))
	})

	_, err := conv.Convert(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ingest.ErrConvertUnavailable)
	assert.Contains(t, err.Error(), "unsupported content type")
}
