package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/wiki"
)

// stubEmbedder implements ai.Embedder with fixed per-text vectors.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (e *stubEmbedder) Name() string { return "stub-embedder" }

func (e *stubEmbedder) Register(_ api.Registry) {}

func (e *stubEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if e.fail {
		return nil, context.DeadlineExceeded
	}
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		var text strings.Builder
		for _, p := range doc.Content {
			if p.Kind == ai.PartText {
				text.WriteString(p.Text)
			}
		}
		vec, ok := e.vectors[text.String()]
		if !ok {
			vec = []float32{1, 1, 1}
		}
		embeddings[i] = &ai.Embedding{Embedding: vec}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	// Config with every required field missing should report the first one.
	_, err := New(Config{})
	if err == nil {
		t.Fatal("New(Config{}) expected error, got nil")
	}
	if !strings.Contains(err.Error(), "genkit") {
		t.Errorf("error = %v, want mention of genkit", err)
	}
}

func TestBot_Retrieve_RanksBySimilarity(t *testing.T) {
	t.Parallel()

	embedder := &stubEmbedder{vectors: map[string][]float32{
		"Saturn has prominent rings.":       {1, 0, 0},
		"The planet was named after a god.": {0, 1, 0},
		"Its moons number over eighty.":     {0, 0, 1},
		"Tell me about the rings":           {0.9, 0.1, 0},
	}}

	b := &Bot{
		embedder: embedder,
		logger:   log.NewNop(),
		topK:     2,
	}

	chunks := []string{
		"Saturn has prominent rings.",
		"The planet was named after a god.",
		"Its moons number over eighty.",
	}

	got := b.retrieve(context.Background(), "Tell me about the rings", "Saturn", chunks)
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0] != "Saturn has prominent rings." {
		t.Errorf("top chunk = %q, want the rings chunk", got[0])
	}
}

func TestBot_Retrieve_FallsBackToLeadingChunks(t *testing.T) {
	t.Parallel()

	b := &Bot{
		embedder: &stubEmbedder{fail: true},
		logger:   log.NewNop(),
		topK:     2,
	}

	chunks := []string{"first", "second", "third"}
	got := b.retrieve(context.Background(), "anything", "Title", chunks)

	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("fallback = %v, want leading two chunks in order", got)
	}
}

func TestBot_Retrieve_EmptyChunks(t *testing.T) {
	t.Parallel()

	b := &Bot{
		embedder: &stubEmbedder{},
		logger:   log.NewNop(),
		topK:     3,
	}

	if got := b.retrieve(context.Background(), "q", "Title", nil); got != nil {
		t.Errorf("retrieve with no chunks = %v, want nil", got)
	}
}

func TestBot_LeadingChunks(t *testing.T) {
	t.Parallel()

	b := &Bot{topK: 3}

	short := []string{"a", "b"}
	if got := b.leadingChunks(short); len(got) != 2 {
		t.Errorf("leadingChunks(short) = %v, want all chunks", got)
	}

	long := []string{"a", "b", "c", "d", "e"}
	if got := b.leadingChunks(long); len(got) != 3 {
		t.Errorf("leadingChunks(long) returned %d chunks, want 3", len(got))
	}
}

func TestBot_AskStream_EmptyQuestion(t *testing.T) {
	t.Parallel()

	b := &Bot{logger: log.NewNop()}

	if _, err := b.AskStream(context.Background(), "   ", "default", nil); err != ErrEmptyQuestion {
		t.Errorf("AskStream(blank) = %v, want ErrEmptyQuestion", err)
	}
}

func TestBot_AskStream_NoSearchResults(t *testing.T) {
	t.Parallel()

	// MediaWiki search with zero hits.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"query":{"search":[]}}`)
	}))
	defer srv.Close()

	client, err := wiki.NewClient(wiki.Config{BaseURL: srv.URL}, log.NewNop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	b := &Bot{wiki: client, logger: log.NewNop()}

	answer, err := b.AskStream(context.Background(), "xyzzy nonsense", "default", nil)
	if err != nil {
		t.Fatalf("AskStream() error = %v, want nil", err)
	}
	if !strings.Contains(answer.Text, "No relevant Wikipedia content") {
		t.Errorf("answer = %q, want the no-content message", answer.Text)
	}
	if answer.Article != "" {
		t.Errorf("Article = %q, want empty", answer.Article)
	}
}
