// Package wiki provides a MediaWiki API client for fetching article
// content used as retrieval context.
//
// The client talks to the action API (action=query) and returns plain
// text: search hits via list=search, article bodies via prop=extracts
// with the HTML stripped. Disambiguation pages are detected through
// prop=pageprops and resolved by falling back to the next search hit,
// mirroring how the bot should never answer from a disambiguation page.
//
// All requests go through a token-bucket rate limiter and a bounded
// response reader so a misbehaving mirror cannot stall or exhaust the
// process.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wikirag/wikirag/internal/log"
)

// ErrNoResults indicates the search returned no usable pages.
var ErrNoResults = errors.New("no wikipedia results")

// maxResponseBytes bounds a single API response read (10 MB).
const maxResponseBytes = 10 << 20

// defaultUserAgent identifies the bot per the Wikimedia API etiquette.
const defaultUserAgent = "wikirag/1.0 (https://github.com/wikirag/wikirag)"

// Config holds Wikipedia client configuration.
type Config struct {
	// BaseURL is the action API endpoint, e.g.
	// "https://en.wikipedia.org/w/api.php".
	BaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// Client is a MediaWiki action API client.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    log.Logger
}

// NewClient creates a Wikipedia client.
func NewClient(cfg Config, logger log.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("wiki: base URL is required")
	}
	if logger == nil {
		return nil, errors.New("wiki: logger is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 2.0
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(limit), 1),
		logger:    logger,
	}, nil
}

// SearchResult is a single search hit.
type SearchResult struct {
	Title  string
	PageID int
}

// Article is a fetched Wikipedia page as plain text.
type Article struct {
	Title          string
	PageID         int
	Text           string
	Disambiguation bool
}

// searchResponse mirrors the action=query list=search payload
// (formatversion=2).
type searchResponse struct {
	Query struct {
		Search []struct {
			Title  string `json:"title"`
			PageID int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

// extractResponse mirrors the action=query prop=extracts|pageprops
// payload (formatversion=2).
type extractResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			PageID    int    `json:"pageid"`
			Missing   bool   `json:"missing"`
			Extract   string `json:"extract"`
			PageProps struct {
				Disambiguation *string `json:"disambiguation"`
			} `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
}

// Search returns up to limit pages matching the query, best match first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{
		"action":        {"query"},
		"list":          {"search"},
		"srsearch":      {query},
		"srlimit":       {strconv.Itoa(limit)},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	results := make([]SearchResult, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		results = append(results, SearchResult{Title: hit.Title, PageID: hit.PageID})
	}

	c.logger.Debug("wikipedia search", "query", query, "hits", len(results))
	return results, nil
}

// Article fetches a page by title and returns its body as plain text.
// Redirects are followed server-side; the Disambiguation flag is set
// when the page is a disambiguation page.
func (c *Client) Article(ctx context.Context, title string) (*Article, error) {
	params := url.Values{
		"action":        {"query"},
		"prop":          {"extracts|pageprops"},
		"ppprop":        {"disambiguation"},
		"titles":        {title},
		"redirects":     {"1"},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var resp extractResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching article %q: %w", title, err)
	}

	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing {
		return nil, fmt.Errorf("article %q: %w", title, ErrNoResults)
	}

	page := resp.Query.Pages[0]
	text, err := extractText(page.Extract)
	if err != nil {
		return nil, fmt.Errorf("extracting text of %q: %w", page.Title, err)
	}

	return &Article{
		Title:          page.Title,
		PageID:         page.PageID,
		Text:           text,
		Disambiguation: page.PageProps.Disambiguation != nil,
	}, nil
}

// BestArticle searches for the query and returns the first article that
// is not a disambiguation page. At most three candidates are tried.
func (c *Client) BestArticle(ctx context.Context, query string) (*Article, error) {
	const maxCandidates = 3

	hits, err := c.Search(ctx, query, maxCandidates)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("query %q: %w", query, ErrNoResults)
	}

	var lastErr error
	for _, hit := range hits {
		article, err := c.Article(ctx, hit.Title)
		if err != nil {
			lastErr = err
			continue
		}
		if article.Disambiguation {
			c.logger.Debug("skipping disambiguation page", "title", article.Title)
			continue
		}
		if article.Text == "" {
			continue
		}
		return article, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("query %q: %w", query, ErrNoResults)
}

// get performs a rate-limited GET against the action API and decodes
// the JSON response into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
