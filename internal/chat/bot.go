// Package chat implements the question answering pipeline: resolve a
// Wikipedia article for the question, chunk and index its text, retrieve
// the most relevant chunks, and generate a styled answer grounded in them.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/wikirag/wikirag/internal/chunk"
	"github.com/wikirag/wikirag/internal/knowledge"
	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/prompt"
	"github.com/wikirag/wikirag/internal/wiki"
)

// fallbackAnswer is returned when the model produces an empty response.
const fallbackAnswer = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// noContentAnswer is returned when no Wikipedia article matches the
// question.
const noContentAnswer = "No relevant Wikipedia content found for your question."

// Sentinel errors for pipeline operations.
var (
	// ErrEmptyQuestion indicates the question was blank.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrExecutionFailed indicates the answer pipeline failed.
	ErrExecutionFailed = errors.New("execution failed")
)

// Answer is the complete result of answering one question.
type Answer struct {
	Text    string   // Model's final text output
	Article string   // Resolved Wikipedia article title
	Sources []string // Context chunks the answer was grounded in
}

// StreamCallback is called for each chunk of streaming response.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Config contains all required parameters for the Bot.
type Config struct {
	Genkit   *genkit.Genkit
	Wiki     *wiki.Client
	Splitter *chunk.Splitter
	Embedder ai.Embedder
	Logger   log.Logger

	ModelName   string  // Provider-qualified model name (e.g. "openai/gpt-3.5-turbo")
	Temperature float64 // Sampling temperature
	MaxTokens   int     // Response token cap (0 = provider default)
	TopK        int     // Context chunks retrieved per question

	// Resilience configuration
	RetryConfig          RetryConfig          // Zero-value uses defaults
	CircuitBreakerConfig CircuitBreakerConfig // Zero-value uses defaults
	RateLimiter          *rate.Limiter        // Optional (nil = use default)
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Wiki == nil {
		return errors.New("wiki client is required")
	}
	if cfg.Splitter == nil {
		return errors.New("splitter is required")
	}
	if cfg.Embedder == nil {
		return errors.New("embedder is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Bot answers questions against Wikipedia content.
//
// Bot is stateless across questions: each question builds its own
// short-lived vector index over the resolved article. All configuration
// is captured immutably at construction, so the Bot is safe for
// concurrent use.
type Bot struct {
	g        *genkit.Genkit
	wiki     *wiki.Client
	splitter *chunk.Splitter
	embedder ai.Embedder
	logger   log.Logger

	modelName   string
	temperature float64
	maxTokens   int
	topK        int

	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter
}

// New creates a Bot from the given configuration.
func New(cfg Config) (*Bot, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}

	// Default: 2 requests/sec sustained, burst of 5.
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(2, 5)
	}

	b := &Bot{
		g:        cfg.Genkit,
		wiki:     cfg.Wiki,
		splitter: cfg.Splitter,
		embedder: cfg.Embedder,
		logger:   cfg.Logger,

		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		topK:        topK,

		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cbConfig),
		rateLimiter:    rl,
	}

	b.logger.Info("chat bot initialized",
		"model", b.modelName,
		"topK", b.topK,
	)

	return b, nil
}

// Ask answers a question (non-streaming).
// This is a convenience wrapper around AskStream with nil callback.
func (b *Bot) Ask(ctx context.Context, question, style string) (*Answer, error) {
	return b.AskStream(ctx, question, style, nil)
}

// AskStream answers a question with optional streaming output.
// If callback is non-nil, it is called for each chunk of the response as
// it is generated. The final answer is always returned after generation
// completes.
func (b *Bot) AskStream(ctx context.Context, question, style string, callback StreamCallback) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	b.logger.Debug("answering question",
		"style", style,
		"streaming", callback != nil)

	article, err := b.wiki.BestArticle(ctx, question)
	if err != nil {
		// No usable search result is an answer, not a failure.
		if errors.Is(err, wiki.ErrNoResults) {
			return &Answer{Text: noContentAnswer}, nil
		}
		return nil, fmt.Errorf("fetching article: %w", err)
	}

	chunks, err := b.splitter.Split(article.Text)
	if err != nil {
		return nil, fmt.Errorf("splitting article %q: %w", article.Title, err)
	}

	contextChunks := b.retrieve(ctx, question, article.Title, chunks)

	resp, err := b.generate(ctx, contextChunks, question, style, callback)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		b.logger.Warn("model returned empty response", "article", article.Title)
		text = fallbackAnswer
	}

	return &Answer{
		Text:    text,
		Article: article.Title,
		Sources: contextChunks,
	}, nil
}

// retrieve selects the chunks most relevant to the question. Retrieval
// failures degrade to the leading chunks of the article rather than
// failing the question.
func (b *Bot) retrieve(ctx context.Context, question, title string, chunks []string) []string {
	if len(chunks) == 0 {
		return nil
	}

	store, err := knowledge.NewStore(b.embedder, b.logger)
	if err != nil {
		b.logger.Warn("creating index failed, using leading chunks", "error", err)
		return b.leadingChunks(chunks)
	}

	docs := make([]knowledge.Document, len(chunks))
	for i, text := range chunks {
		docs[i] = knowledge.Document{
			ID:       "chunk-" + strconv.Itoa(i),
			Content:  text,
			Metadata: map[string]string{"article": title},
		}
	}

	added, err := store.Add(ctx, docs)
	if err != nil || added == 0 {
		b.logger.Warn("indexing chunks failed, using leading chunks",
			"added", added,
			"error", err)
		return b.leadingChunks(chunks)
	}

	results, err := store.Search(ctx, question, knowledge.WithTopK(b.topK))
	if err != nil || len(results) == 0 {
		b.logger.Warn("similarity search failed, using leading chunks", "error", err)
		return b.leadingChunks(chunks)
	}

	selected := make([]string, len(results))
	for i, r := range results {
		selected[i] = r.Document.Content
	}
	return selected
}

// leadingChunks is the retrieval fallback: the first topK chunks in
// article order.
func (b *Bot) leadingChunks(chunks []string) []string {
	if len(chunks) <= b.topK {
		return chunks
	}
	return chunks[:b.topK]
}

// generate runs the model call behind the circuit breaker, rate limiter
// and retry loop.
func (b *Bot) generate(ctx context.Context, contextChunks []string, question, style string, callback StreamCallback) (*ai.ModelResponse, error) {
	messages := prompt.Build(contextChunks, question, style)

	opts := []ai.GenerateOption{
		ai.WithModelName(b.modelName),
		ai.WithSystem(prompt.System(style)),
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     b.temperature,
			MaxOutputTokens: b.maxTokens,
		}),
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
	}

	if err := b.circuitBreaker.Allow(); err != nil {
		b.logger.Warn("circuit breaker is open, rejecting request",
			"state", b.circuitBreaker.State().String())
		return nil, fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := b.generateWithRetry(ctx, opts)
	if err != nil {
		b.circuitBreaker.Failure()
		return nil, err
	}

	b.circuitBreaker.Success()
	return resp, nil
}
