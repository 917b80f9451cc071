package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/generation"
)

// Client talks to the Gemini API. It satisfies both generation.Generator
// and generation.Embedder.
type Client struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
}

var (
	_ generation.Generator = (*Client)(nil)
	_ generation.Embedder  = (*Client)(nil)
)

// NewClient creates a Gemini-backed Client from the LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("%w: embedding model cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Client{logger: logger, config: cfg, client: client}, nil
}

// ProposeTerms asks the model for key-term candidates found in the text.
func (c *Client) ProposeTerms(ctx context.Context, text string) ([]generation.TermCandidate, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: document text cannot be empty", generation.ErrGenerationFailed)
	}

	raw, err := c.generateJSON(ctx, termsPrompt(text))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Terms []generation.TermCandidate `json:"terms"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse terms response: %v", generation.ErrInvalidResponse, err)
	}
	if len(parsed.Terms) == 0 {
		return nil, fmt.Errorf("%w: no terms in response", generation.ErrInvalidResponse)
	}

	c.logger.DebugContext(ctx, "term proposal parsed", "terms", len(parsed.Terms))
	return parsed.Terms, nil
}

// AuthorCards asks the model for flashcard candidates covering the text.
func (c *Client) AuthorCards(ctx context.Context, text string) ([]generation.CardCandidate, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: document text cannot be empty", generation.ErrGenerationFailed)
	}

	raw, err := c.generateJSON(ctx, cardsPrompt(text))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Cards []generation.CardCandidate `json:"cards"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse cards response: %v", generation.ErrInvalidResponse, err)
	}
	if len(parsed.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	c.logger.DebugContext(ctx, "card authoring parsed", "cards", len(parsed.Cards))
	return parsed.Cards, nil
}

// Compose returns free prose for the given prompt.
func (c *Client) Compose(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", generation.ErrGenerationFailed)
	}

	var text string
	err := c.withRetry(ctx, "compose", func(ctx context.Context) error {
		resp, err := c.client.Models.GenerateContent(ctx, c.config.ModelName, genai.Text(prompt), nil)
		if err != nil {
			return retry.RetryableError(err)
		}
		out, err := responseText(resp)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// EmbedDocument embeds chunk text for indexing.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

// EmbedQuery embeds query text for retrieval.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, "RETRIEVAL_QUERY")
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", generation.ErrGenerationFailed)
	}

	var vector []float32
	err := c.withRetry(ctx, "embed", func(ctx context.Context) error {
		resp, err := c.client.Models.EmbedContent(ctx, c.config.EmbeddingModel,
			genai.Text(text), &genai.EmbedContentConfig{TaskType: taskType})
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return fmt.Errorf("%w: empty embedding", generation.ErrInvalidResponse)
		}
		vector = resp.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// generateJSON sends a prompt expecting a JSON object back and returns the
// raw response text.
func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	var text string
	err := c.withRetry(ctx, "generate", func(ctx context.Context) error {
		resp, err := c.client.Models.GenerateContent(ctx, c.config.ModelName, genai.Text(prompt), cfg)
		if err != nil {
			return retry.RetryableError(err)
		}
		out, err := responseText(resp)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// responseText extracts the text payload, distinguishing permanent failure
// modes so the retry wrapper does not spin on them.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	return text, nil
}

// withRetry runs fn under exponential backoff with jitter. Only errors fn
// marks retryable are retried; everything else surfaces immediately.
func (c *Client) withRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.config.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.config.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	baseDelay := time.Duration(c.config.RetryDelaySeconds) * time.Second
	if baseDelay < time.Second {
		baseDelay = 2 * time.Second
	}
	maxRetries := c.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}

	backoff := retry.WithJitterPercent(25,
		retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(baseDelay)))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "Gemini API call failed",
				"operation", operation,
				"attempt", attempt,
				"error", err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, generation.ErrInvalidResponse) || errors.Is(err, generation.ErrContentBlocked) {
		return err
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v",
		generation.ErrTransientFailure, operation, attempt, err)
}
