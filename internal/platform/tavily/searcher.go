// Package tavily implements the search.Searcher interface against the
// Tavily search API, used to fill in definitions the source material lacks.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/search"
)

// DefaultBaseURL is the hosted Tavily endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// Searcher calls the Tavily search endpoint with answer synthesis enabled.
type Searcher struct {
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	maxResults int
	client     *http.Client
}

var _ search.Searcher = (*Searcher)(nil)

// NewSearcher builds a Searcher from the search configuration.
func NewSearcher(logger *slog.Logger, cfg config.SearchConfig) (*Searcher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", search.ErrUnavailable)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults < 1 {
		maxResults = 3
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Searcher{
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type searchRequest struct {
	Query         string `json:"query"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Lookup runs one search and returns the synthesized answer, or the top
// result's content when no answer came back.
func (s *Searcher) Lookup(ctx context.Context, query string) (*search.Result, error) {
	body, err := json.Marshal(searchRequest{
		Query:         query,
		IncludeAnswer: true,
		MaxResults:    s.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", search.ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", search.ErrUnavailable, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", search.ErrUnavailable, err)
	}

	if answer := strings.TrimSpace(parsed.Answer); answer != "" {
		result := &search.Result{Answer: answer}
		if len(parsed.Results) > 0 {
			result.URL = parsed.Results[0].URL
		}
		s.logger.DebugContext(ctx, "search answered", "query", query, "answer_length", len(answer))
		return result, nil
	}

	// No synthesized answer; fall back to the best result snippet.
	for _, r := range parsed.Results {
		if content := strings.TrimSpace(r.Content); content != "" {
			return &search.Result{Answer: content, URL: r.URL}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", search.ErrNotFound, query)
}
