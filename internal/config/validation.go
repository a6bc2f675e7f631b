package config

import (
	"fmt"
	"os"
	"slices"
)

// validProviders are the accepted values for Config.Provider.
var validProviders = []string{ProviderOpenAI, ProviderGoogleAI, ProviderOllama}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider validation
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q (valid: openai, googleai, ollama)", ErrInvalidProvider, c.Provider)
	}

	// 2. Credentials for the selected provider.
	// The openai provider talks to an OpenAI-compatible Kong gateway and
	// needs both the token and the base URL from the environment.
	switch c.Provider {
	case ProviderOpenAI:
		if c.GatewayToken == "" {
			return fmt.Errorf("%w: KONG_API_TOKEN is not set\n"+
				"Create a .env file with:\n"+
				"  KONG_API_TOKEN=your_kong_token_here", ErrMissingGatewayToken)
		}
		if c.GatewayBaseURL == "" {
			return fmt.Errorf("%w: KONG_BASE_URL is not set\n"+
				"Create a .env file with:\n"+
				"  KONG_BASE_URL=your_kong_base_url_here", ErrMissingGatewayURL)
		}
	case ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
		}
	}

	// 3. Model configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 128000 {
		return fmt.Errorf("%w: must be between 1 and 128,000, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// 4. Retrieval configuration
	if c.TopK < 1 || c.TopK > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.Chunking.Size < 100 || c.Chunking.Size > 4000 {
		return fmt.Errorf("%w: size must be between 100 and 4000, got %d", ErrInvalidChunking, c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: overlap must be non-negative and smaller than size, got %d", ErrInvalidChunking, c.Chunking.Overlap)
	}
	if c.Chunking.MaxChunks < 1 || c.Chunking.MaxChunks > 50 {
		return fmt.Errorf("%w: max_chunks must be between 1 and 50, got %d", ErrInvalidChunking, c.Chunking.MaxChunks)
	}

	// 5. Wikipedia client configuration
	if c.Wiki.BaseURL == "" {
		return fmt.Errorf("%w: base_url cannot be empty", ErrInvalidWikipedia)
	}
	if c.Wiki.TimeoutMS < 1000 || c.Wiki.TimeoutMS > 120000 {
		return fmt.Errorf("%w: timeout_ms must be between 1,000 and 120,000, got %d", ErrInvalidWikipedia, c.Wiki.TimeoutMS)
	}
	if c.Wiki.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive, got %f", ErrInvalidWikipedia, c.Wiki.RateLimit)
	}

	return nil
}
