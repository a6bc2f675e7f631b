package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input defines the request payload for the ask flow.
type Input struct {
	Question string `json:"question"`
	Style    string `json:"style,omitempty"` // Response style (default if empty)
}

// Output defines the response payload from the ask flow.
type Output struct {
	Answer  string   `json:"answer"`
	Article string   `json:"article"`
	Sources []string `json:"sources,omitempty"`
}

// StreamChunk is the streaming output type for the ask flow.
// Each chunk contains partial text that can be displayed immediately.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the registered name of the ask flow in Genkit.
const FlowName = "wikirag/ask"

// Flow is the type alias for the ask flow.
type Flow = core.Flow[Input, Output, StreamChunk]

// Package-level singleton for Flow to prevent panic on re-registration.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the ask flow singleton, initializing it on first call.
// Subsequent calls return the existing Flow (parameters are ignored).
// This is safe because genkit.DefineStreamingFlow panics on re-registration.
func NewFlow(g *genkit.Genkit, bot *Bot) *Flow {
	flowOnce.Do(func() {
		flow = bot.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting resets the Flow singleton for testing.
// WARNING: Only use in tests. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow defines the Genkit streaming flow for the Bot. The flow is
// a thin wrapper: Bot.AskStream contains the pipeline logic, the flow
// contributes tracing, typed I/O and streaming plumbing.
//
// Use NewFlow instead of calling DefineFlow directly; registering the
// same flow twice panics inside Genkit.
func (b *Bot) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, StreamChunk) error) (Output, error) {
			var callback StreamCallback
			if streamCb != nil {
				callback = func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
					if chunk == nil {
						return nil
					}
					for _, part := range chunk.Content {
						if part.Text == "" {
							continue
						}
						if err := streamCb(ctx, StreamChunk{Text: part.Text}); err != nil {
							return err
						}
					}
					return nil
				}
			}

			answer, err := b.AskStream(ctx, input.Question, input.Style, callback)
			if err != nil {
				return Output{}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
			}

			return Output{
				Answer:  answer.Text,
				Article: answer.Article,
				Sources: answer.Sources,
			}, nil
		},
	)
}
