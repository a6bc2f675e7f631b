package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/wikirag/wikirag/internal/chat"
	"github.com/wikirag/wikirag/internal/chunk"
	"github.com/wikirag/wikirag/internal/config"
	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/session"
	"github.com/wikirag/wikirag/internal/wiki"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	wikiClient, err := wiki.NewClient(wiki.Config{
		BaseURL:   cfg.Wiki.BaseURL,
		Timeout:   time.Duration(cfg.Wiki.TimeoutMS) * time.Millisecond,
		RateLimit: cfg.Wiki.RateLimit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating wikipedia client: %w", err)
	}
	a.Wiki = wikiClient

	splitter, err := chunk.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.MaxChunks)
	if err != nil {
		return nil, fmt.Errorf("creating splitter: %w", err)
	}
	a.Splitter = splitter

	sessions, err := session.NewStore(logger)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	a.Sessions = sessions

	bot, err := chat.New(chat.Config{
		Genkit:      g,
		Wiki:        wikiClient,
		Splitter:    splitter,
		Embedder:    embedder,
		Logger:      logger,
		ModelName:   modelRef(cfg),
		Temperature: float64(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
		TopK:        cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bot: %w", err)
	}
	a.Bot = bot

	a.Flow = chat.NewFlow(g, bot)

	return a, nil
}

// modelRef returns the provider-qualified model name Genkit expects,
// e.g. "openai/gpt-3.5-turbo".
func modelRef(cfg *config.Config) string {
	if strings.Contains(cfg.ModelName, "/") {
		return cfg.ModelName
	}
	return cfg.Provider + "/" + cfg.ModelName
}

// provideOtelShutdown sets up OTLP trace exporting before Genkit
// initialization, so spans created during setup are captured.
// Returns a no-op cleanup when tracing is disabled or the exporter
// cannot be created.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	tr := cfg.Tracing
	if !tr.Enabled {
		return func() {}
	}

	endpoint := tr.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("trace exporting enabled",
		"endpoint", endpoint,
		"service", tr.ServiceName,
		"environment", tr.Environment,
	)

	shutdown := tracing.TracerProvider().Shutdown

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports openai (default, via the API gateway), googleai, and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderGoogleAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
		logger.Info("initialized Genkit with googleai provider", "model", cfg.ModelName)

	default: // "openai" via the API gateway
		// The gateway fronts an OpenAI-compatible API. It authenticates
		// with an "apikey" header in addition to the standard bearer token.
		oai := &openai.OpenAI{
			APIKey: cfg.GatewayToken,
			Opts: []option.RequestOption{
				option.WithBaseURL(cfg.GatewayBaseURL),
				option.WithHeader("apikey", cfg.GatewayToken),
			},
		}
		g = genkit.Init(ctx, genkit.WithPlugins(oai))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider",
			"model", cfg.ModelName, "gateway", cfg.GatewayBaseURL)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider plugin.
// Each provider registers embedders differently:
//   - openai: auto-registered in Init(), looked up by model name
//   - ollama: registered in provideGenkit, keyed by server address
//   - googleai: GoogleAIEmbedder(g, modelName)
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderGoogleAI:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	default:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	}
}
