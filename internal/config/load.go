package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrWeightsSum is returned when the difficulty-score weights do not sum to 1.
var ErrWeightsSum = errors.New("scoring weights must sum to 1.0")

// Load reads configuration from environment variables (STUDYBUDDY_ prefix,
// dots replaced by underscores) and an optional config.yaml in the working
// directory. Environment variables take precedence over file values.
// Returns a populated Config or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STUDYBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("output_dir", "output")

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.run_timeout_seconds", 600)

	v.SetDefault("store.path", "data/knowledge.db")
	v.SetDefault("store.chunk_size", 1000)
	v.SetDefault("store.chunk_overlap", 200)

	// Secrets default empty so AutomaticEnv can bind them during Unmarshal.
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("convert.api_key", "")
	v.SetDefault("search.api_key", "")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.embedding_model", "text-embedding-004")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.timeout_seconds", 60)

	v.SetDefault("convert.base_url", "https://api.firecrawl.dev")
	v.SetDefault("convert.timeout_seconds", 90)

	v.SetDefault("search.base_url", "https://api.tavily.com")
	v.SetDefault("search.timeout_seconds", 30)
	v.SetDefault("search.max_results", 3)

	v.SetDefault("scoring.ease_weight", 0.5)
	v.SetDefault("scoring.lapse_weight", 0.3)
	v.SetDefault("scoring.interval_weight", 0.2)
	v.SetDefault("scoring.max_ease", 5.0)
	v.SetDefault("scoring.lapse_cap", 10)
	v.SetDefault("scoring.context_chunks", 3)
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sum := cfg.Scoring.EaseWeight + cfg.Scoring.LapseWeight + cfg.Scoring.IntervalWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: got %.4f", ErrWeightsSum, sum)
	}

	return nil
}
