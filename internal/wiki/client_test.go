package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wikirag/wikirag/internal/log"
)

// fakeWiki builds an httptest server that answers action API requests
// from canned page data. Pages maps title -> HTML extract; disambig
// titles are flagged via pageprops.
type fakeWiki struct {
	searchHits []string
	pages      map[string]string
	disambig   map[string]bool
}

func (f *fakeWiki) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("list") == "search":
			var hits []string
			for i, title := range f.searchHits {
				hits = append(hits, fmt.Sprintf(`{"title":%q,"pageid":%d}`, title, i+1))
			}
			fmt.Fprintf(w, `{"query":{"search":[%s]}}`, strings.Join(hits, ","))

		case strings.Contains(q.Get("prop"), "extracts"):
			title := q.Get("titles")
			extract, ok := f.pages[title]
			if !ok {
				fmt.Fprintf(w, `{"query":{"pages":[{"title":%q,"missing":true}]}}`, title)
				return
			}
			props := "{}"
			if f.disambig[title] {
				props = `{"disambiguation":""}`
			}
			fmt.Fprintf(w, `{"query":{"pages":[{"title":%q,"pageid":1,"extract":%q,"pageprops":%s}]}}`,
				title, extract, props)

		default:
			http.Error(w, "unexpected request", http.StatusBadRequest)
		}
	}
}

func newTestClient(t *testing.T, f *fakeWiki) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:   srv.URL,
		Timeout:   5 * time.Second,
		RateLimit: 100, // tests should not be rate limited
	}, log.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestSearch(t *testing.T) {
	client, _ := newTestClient(t, &fakeWiki{
		searchHits: []string{"Go (programming language)", "Go (game)"},
	})

	results, err := client.Search(context.Background(), "golang", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "Go (programming language)" {
		t.Errorf("first hit = %q", results[0].Title)
	}
}

func TestSearch_Empty(t *testing.T) {
	client, _ := newTestClient(t, &fakeWiki{})

	results, err := client.Search(context.Background(), "qzxv", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestArticle_StripsHTML(t *testing.T) {
	client, _ := newTestClient(t, &fakeWiki{
		pages: map[string]string{
			"Gopher": `<p>The <b>gopher</b> is a burrowing rodent.<sup class="reference">[1]</sup></p>` +
				`<h2>See also</h2><ul><li>Ground squirrel</li></ul>` +
				`<h2>Habitat</h2><p>Gophers live in North America.</p>`,
		},
	})

	article, err := client.Article(context.Background(), "Gopher")
	if err != nil {
		t.Fatalf("Article: %v", err)
	}

	if strings.Contains(article.Text, "<") {
		t.Errorf("HTML leaked into text: %q", article.Text)
	}
	if strings.Contains(article.Text, "[1]") {
		t.Errorf("citation marker leaked into text: %q", article.Text)
	}
	if strings.Contains(article.Text, "Ground squirrel") {
		t.Errorf("'See also' section should be dropped: %q", article.Text)
	}
	if !strings.Contains(article.Text, "burrowing rodent") {
		t.Errorf("body text missing: %q", article.Text)
	}
	if !strings.Contains(article.Text, "Gophers live in North America") {
		t.Errorf("content section missing: %q", article.Text)
	}
}

func TestArticle_Missing(t *testing.T) {
	client, _ := newTestClient(t, &fakeWiki{pages: map[string]string{}})

	_, err := client.Article(context.Background(), "Nonexistent")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestBestArticle_SkipsDisambiguation(t *testing.T) {
	client, _ := newTestClient(t, &fakeWiki{
		searchHits: []string{"Mercury", "Mercury (planet)"},
		pages: map[string]string{
			"Mercury":          `<p>Mercury may refer to several things.</p>`,
			"Mercury (planet)": `<p>Mercury is the smallest planet in the Solar System.</p>`,
		},
		disambig: map[string]bool{"Mercury": true},
	})

	article, err := client.BestArticle(context.Background(), "mercury")
	if err != nil {
		t.Fatalf("BestArticle: %v", err)
	}
	if article.Title != "Mercury (planet)" {
		t.Errorf("got %q, want the non-disambiguation page", article.Title)
	}
}

func TestBestArticle_NoResults(t *testing.T) {
	client, _ := newTestClient(t, &fakeWiki{})

	_, err := client.BestArticle(context.Background(), "qzxv")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(Config{}, log.NewNop()); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewClient(Config{BaseURL: "https://example.org"}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b", "a b"},
		{"a\n\nb\tc", "a b c"},
		{"  trimmed  ", "trimmed"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeWhitespace(tt.in); got != tt.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
