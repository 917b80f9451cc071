package gemini

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/generation"
)

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:      "test-key",
		ModelName:         "gemini-2.0-flash",
		EmbeddingModel:    "text-embedding-004",
		MaxRetries:        1,
		RetryDelaySeconds: 1,
		TimeoutSeconds:    5,
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		_, err := NewClient(context.Background(), nil, testLLMConfig())
		assert.Error(t, err)
	})

	t.Run("missing API key", func(t *testing.T) {
		t.Parallel()
		cfg := testLLMConfig()
		cfg.GeminiAPIKey = ""
		_, err := NewClient(context.Background(), logger, cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		t.Parallel()
		cfg := testLLMConfig()
		cfg.ModelName = ""
		_, err := NewClient(context.Background(), logger, cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing embedding model", func(t *testing.T) {
		t.Parallel()
		cfg := testLLMConfig()
		cfg.EmbeddingModel = ""
		_, err := NewClient(context.Background(), logger, cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestResponseText(t *testing.T) {
	t.Parallel()

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		_, err := responseText(nil)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()
		_, err := responseText(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("safety block", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
		}
		_, err := responseText(resp)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("text extracted", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: `{"terms":[]}`}}},
			}},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Equal(t, `{"terms":[]}`, text)
	})
}

func TestPromptsEmbedMaterial(t *testing.T) {
	t.Parallel()

	material := "Raft is a consensus algorithm."
	for name, prompt := range map[string]string{
		"terms": termsPrompt(material),
		"cards": cardsPrompt(material),
	} {
		assert.True(t, strings.Contains(prompt, material), "%s prompt misses material", name)
		assert.True(t, strings.Contains(prompt, "JSON"), "%s prompt misses JSON instruction", name)
	}
}
