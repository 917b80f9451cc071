// Package config loads and validates application configuration from the
// environment and optional config files.
package config

// Config holds all application configuration, grouped by concern.
type Config struct {
	Pipeline  PipelineConfig  `mapstructure:"pipeline"  validate:"required"`
	Store     StoreConfig     `mapstructure:"store"     validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Convert   ConvertConfig   `mapstructure:"convert"`
	Search    SearchConfig    `mapstructure:"search"`
	Scoring   ScoringConfig   `mapstructure:"scoring"   validate:"required"`
	LogLevel  string          `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	OutputDir string          `mapstructure:"output_dir" validate:"required"`
}

// PipelineConfig controls run orchestration.
type PipelineConfig struct {
	// Workers bounds concurrent external calls within one stage.
	Workers int `mapstructure:"workers" validate:"required,gte=1,lte=32"`

	// RunTimeoutSeconds aborts outstanding stage work and finalizes with
	// partial results once exceeded.
	RunTimeoutSeconds int `mapstructure:"run_timeout_seconds" validate:"required,gte=1"`
}

// StoreConfig configures the persistent knowledge store.
type StoreConfig struct {
	Path         string `mapstructure:"path" validate:"required"`
	ChunkSize    int    `mapstructure:"chunk_size" validate:"required,gte=100"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" validate:"gte=0"`
}

// LLMConfig contains language-model integration settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	EmbeddingModel    string `mapstructure:"embedding_model" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=1"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" validate:"gte=1"`
}

// ConvertConfig configures the remote document conversion service. An empty
// API key disables the remote path; ingestion then relies on local
// extraction only.
type ConvertConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=1"`
}

// SearchConfig configures the web-search capability. An empty API key
// disables enrichment; undefined terms then stay undefined.
type SearchConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=1"`
	MaxResults     int    `mapstructure:"max_results" validate:"gte=1,lte=10"`
}

// ScoringConfig holds the difficulty-score policy. The weights are a policy
// choice, not a derived constant; they must be non-negative and sum to 1.
type ScoringConfig struct {
	EaseWeight     float64 `mapstructure:"ease_weight" validate:"gte=0,lte=1"`
	LapseWeight    float64 `mapstructure:"lapse_weight" validate:"gte=0,lte=1"`
	IntervalWeight float64 `mapstructure:"interval_weight" validate:"gte=0,lte=1"`
	MaxEase        float64 `mapstructure:"max_ease" validate:"required,gt=1"`
	LapseCap       int     `mapstructure:"lapse_cap" validate:"required,gte=1"`
	ContextChunks  int     `mapstructure:"context_chunks" validate:"required,gte=1,lte=10"`
}
