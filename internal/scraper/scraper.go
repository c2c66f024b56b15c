package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"

	"github.com/deusflow/mainewire/internal/metrics"
	"github.com/deusflow/mainewire/internal/ratelimit"
	"github.com/deusflow/mainewire/internal/rss"
)

const (
	// MinFeedBodyChars is the plain-text length below which a feed body is
	// considered a teaser and the article page is fetched instead.
	MinFeedBodyChars = 200
	maxPageBytes     = 5 << 20
)

// ArticleContent is full article content
type ArticleContent struct {
	HTML string
	Text string
	URL  string
}

// Extractor fetches article pages and reduces them to their main content.
type Extractor struct {
	client     *http.Client
	userAgent  string
	limiter    *ratelimit.HostLimiter
	timeout    time.Duration
	normalizer *Normalizer
}

func NewExtractor(client *http.Client, userAgent string, limiter *ratelimit.HostLimiter, timeout time.Duration) *Extractor {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.NewHostLimiter(0)
	}
	return &Extractor{
		client:     client,
		userAgent:  userAgent,
		limiter:    limiter,
		timeout:    timeout,
		normalizer: NewNormalizer(""),
	}
}

// ExtractFullArticle gets the readable part of the page at pageURL
func (e *Extractor) ExtractFullArticle(ctx context.Context, pageURL string) (*ArticleContent, error) {
	u, err := url.Parse(pageURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("invalid article url %q", pageURL)
	}

	if err := e.limiter.Wait(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	rss.SetBrowserHeaders(req, e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), u)
	if err != nil {
		return nil, fmt.Errorf("error parsing article: %w", err)
	}

	var text strings.Builder
	if err := article.RenderText(&text); err != nil {
		return nil, fmt.Errorf("error rendering text: %w", err)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("can't get content")
	}

	var body bytes.Buffer
	if err := article.RenderHTML(&body); err != nil {
		return nil, fmt.Errorf("error rendering html: %w", err)
	}

	return &ArticleContent{
		HTML: body.String(),
		Text: strings.TrimSpace(text.String()),
		URL:  pageURL,
	}, nil
}

// LimiterStats reports the per-host limiter state.
func (e *Extractor) LimiterStats() map[string]interface{} {
	return e.limiter.GetStats()
}

// NeedsExtraction reports whether the feed body is too thin to publish.
func (e *Extractor) NeedsExtraction(item rss.Item) bool {
	raw := item.Content
	if strings.TrimSpace(raw) == "" {
		raw = item.Description
	}
	return item.Link != "" && e.normalizer.PlainTextLength(raw) < MinFeedBodyChars
}

// Enrich replaces a teaser body with the extracted article. On failure the
// item is left untouched.
func (e *Extractor) Enrich(ctx context.Context, item *rss.Item) bool {
	if !e.NeedsExtraction(*item) {
		return false
	}

	article, err := e.ExtractFullArticle(ctx, item.Link)
	metrics.RecordExtraction(err == nil)
	if err != nil {
		slog.Warn("Can't get article content", "url", item.Link, "error", err)
		return false
	}

	// Keep the feed body when the page holds less text than the feed did.
	if e.normalizer.PlainTextLength(article.HTML) <= e.normalizer.PlainTextLength(item.Content+item.Description) {
		return false
	}

	item.Content = article.HTML
	slog.Debug("Got article content", "url", item.Link, "chars", len(article.Text))
	return true
}
