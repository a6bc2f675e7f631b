// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (including a local .env file)
//  2. Config file (~/.wikirag/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, chat model, embedder model, temperature
//   - Wikipedia: API endpoint, language, timeout, rate limit
//   - Retrieval: chunking parameters and top-k
//   - Tracing: optional OTLP trace export
//
// Secrets (the gateway token) are never logged; MarshalJSON masks them.
// Validation is fail-fast with sentinel errors usable via errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingGatewayToken indicates KONG_API_TOKEN is not set.
	ErrMissingGatewayToken = errors.New("missing gateway token")

	// ErrMissingGatewayURL indicates KONG_BASE_URL is not set.
	ErrMissingGatewayURL = errors.New("missing gateway base URL")

	// ErrMissingAPIKey indicates a provider API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidChunking indicates a chunking parameter is out of range.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidWikipedia indicates the Wikipedia client configuration is invalid.
	ErrInvalidWikipedia = errors.New("invalid wikipedia configuration")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
	ProviderOllama   = "ollama"
)

// Defaults matching the original deployment: an OpenAI-compatible Kong
// gateway serving gpt-3.5-turbo and text-embedding-ada-002.
const (
	DefaultModelName     = "gpt-3.5-turbo"
	DefaultEmbedderModel = "text-embedding-ada-002"

	// EmbeddingDimensions is the vector width of the default embedder.
	EmbeddingDimensions = 1536
)

// WikipediaConfig holds the MediaWiki API client configuration.
type WikipediaConfig struct {
	BaseURL   string  `mapstructure:"base_url" json:"base_url"`
	Language  string  `mapstructure:"language" json:"language"`
	TimeoutMS int     `mapstructure:"timeout_ms" json:"timeout_ms"`
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit"` // requests per second
}

// ChunkingConfig controls how article text is split before embedding.
type ChunkingConfig struct {
	Size      int `mapstructure:"size" json:"size"`             // target chunk size in characters
	Overlap   int `mapstructure:"overlap" json:"overlap"`       // characters shared between adjacent chunks
	MaxChunks int `mapstructure:"max_chunks" json:"max_chunks"` // cap per article
}

// TracingConfig controls the optional OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; update it when
// adding new secrets.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"` // "openai" (default), "googleai", "ollama"
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Gateway configuration (provider "openai"). The original deployment
	// reads these from a .env file: KONG_API_TOKEN and KONG_BASE_URL.
	GatewayToken   string `mapstructure:"kong_api_token" json:"kong_api_token"` // SENSITIVE: masked in MarshalJSON
	GatewayBaseURL string `mapstructure:"kong_base_url" json:"kong_base_url"`

	// Ollama configuration (provider "ollama" only)
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Default response style ("default", "pirate", "kid", "bullets")
	Style string `mapstructure:"style" json:"style"`

	// Retrieval configuration
	TopK     int             `mapstructure:"top_k" json:"top_k"`
	Chunking ChunkingConfig  `mapstructure:"chunking" json:"chunking"`
	Wiki     WikipediaConfig `mapstructure:"wikipedia" json:"wikipedia"`

	// Observability
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
// A local .env file is merged into the environment first, matching the
// original container contract (docker run --env-file .env).
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".wikirag")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", 0.3)
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("style", "default")

	// Ollama defaults
	v.SetDefault("ollama_host", "http://localhost:11434")

	// Retrieval defaults
	v.SetDefault("top_k", 3)
	v.SetDefault("chunking.size", 800)
	v.SetDefault("chunking.overlap", 0)
	v.SetDefault("chunking.max_chunks", 10)

	// Wikipedia defaults
	v.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.language", "en")
	v.SetDefault("wikipedia.timeout_ms", 15000)
	v.SetDefault("wikipedia.rate_limit", 2.0)

	// Tracing defaults (off unless configured)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "wikirag")
	v.SetDefault("tracing.environment", "dev")
}

// bindEnvVariables binds secret environment variables explicitly.
// GEMINI_API_KEY is read directly by the googlegenai plugin and only
// checked for presence in Validate().
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("kong_api_token", "KONG_API_TOKEN")
	mustBind("kong_base_url", "KONG_BASE_URL")
	mustBind("style", "WIKIRAG_STYLE")
}

// MarshalJSON masks sensitive fields when the config is serialized,
// e.g. for debug logging.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(*c)
	if masked.GatewayToken != "" {
		masked.GatewayToken = "***"
	}
	return json.Marshal(masked)
}
