// Package firecrawl implements the ingest.Converter interface against the
// Firecrawl scrape API, which turns a URL into clean markdown.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/ingest"
)

// DefaultBaseURL is the hosted Firecrawl endpoint.
const DefaultBaseURL = "https://api.firecrawl.dev"

// Converter calls the Firecrawl v2 scrape endpoint.
type Converter struct {
	logger  *slog.Logger
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ingest.Converter = (*Converter)(nil)

// NewConverter builds a Converter from the conversion configuration. It
// returns an error when no API key is set; callers decide whether to run
// without the remote path.
func NewConverter(logger *slog.Logger, cfg config.ConvertConfig) (*Converter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ingest.ErrConvertUnavailable)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Converter{
		logger:  logger,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			NumPages int `json:"numPages"`
		} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// Convert scrapes the given URL and returns its markdown rendition.
func (c *Converter) Convert(ctx context.Context, source string) (*ingest.Converted, error) {
	body, err := json.Marshal(scrapeRequest{URL: source, Formats: []string{"markdown"}})
	if err != nil {
		return nil, fmt.Errorf("encoding scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ingest.ErrConvertTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ingest.ErrConvertUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ingest.ErrConvertUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ingest.ErrConvertUnavailable, resp.StatusCode, truncate(payload, 200))
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ingest.ErrConvertUnavailable, err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("%w: %s", ingest.ErrConvertUnavailable, parsed.Error)
	}
	if parsed.Data.Markdown == "" {
		return nil, ingest.ErrConvertEmpty
	}

	c.logger.DebugContext(ctx, "remote conversion succeeded",
		"source", source,
		"markdown_length", len(parsed.Data.Markdown),
		"elapsed", time.Since(start).String())

	return &ingest.Converted{
		Text:      parsed.Data.Markdown,
		PageCount: parsed.Data.Metadata.NumPages,
	}, nil
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

func truncate(b []byte, max int) string {
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
