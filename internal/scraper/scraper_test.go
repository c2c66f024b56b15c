package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/mainewire/internal/ratelimit"
	"github.com/deusflow/mainewire/internal/rss"
)

const paragraph = "Crews worked through the night along the Portland waterfront after the storm surge pushed water over the piers, " +
	"flooding several businesses on Commercial Street and stranding vehicles in the lots near the ferry terminal. " +
	"City officials said cleanup would continue for several days while inspectors assess the damage to the wharves."

func articlePage() string {
	var b strings.Builder
	b.WriteString("<html><head><title>Storm floods waterfront</title></head><body>")
	b.WriteString(`<nav><a href="/">Home</a> <a href="/news">News</a></nav>`)
	b.WriteString("<article><h1>Storm floods waterfront</h1>")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "<p>%s (%d)</p>", paragraph, i)
	}
	b.WriteString("</article><footer>Copyright Herald</footer></body></html>")
	return b.String()
}

func TestExtractFullArticle(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage())
	}))
	defer srv.Close()

	e := NewExtractor(nil, "Mozilla/5.0 test", ratelimit.NewHostLimiter(0), time.Second)
	article, err := e.ExtractFullArticle(context.Background(), srv.URL+"/storm")
	require.NoError(t, err)

	assert.Equal(t, "Mozilla/5.0 test", ua)
	assert.Contains(t, article.Text, "Commercial Street")
	assert.Contains(t, article.HTML, "<p>")
	assert.NotContains(t, article.Text, "Copyright Herald")
	assert.Equal(t, srv.URL+"/storm", article.URL)
}

func TestExtractFullArticleErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := NewExtractor(nil, "", nil, time.Second)

	_, err := e.ExtractFullArticle(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)

	_, err = e.ExtractFullArticle(context.Background(), "/not/absolute")
	assert.Error(t, err)
}

func TestEnrichReplacesTeaser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage())
	}))
	defer srv.Close()

	e := NewExtractor(srv.Client(), "", nil, time.Second)
	item := rss.Item{Title: "Storm floods waterfront", Link: srv.URL + "/storm", Description: "<p>Storm floods waterfront.</p>"}

	require.True(t, e.NeedsExtraction(item))
	assert.True(t, e.Enrich(context.Background(), &item))
	assert.Contains(t, item.Content, "Commercial Street")
	assert.Equal(t, "<p>Storm floods waterfront.</p>", item.Description)
}

func TestEnrichKeepsFeedBodyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewExtractor(srv.Client(), "", nil, time.Second)
	item := rss.Item{Link: srv.URL + "/blocked", Content: "<p>Teaser.</p>"}

	assert.False(t, e.Enrich(context.Background(), &item))
	assert.Equal(t, "<p>Teaser.</p>", item.Content)
}

func TestNeedsExtraction(t *testing.T) {
	e := NewExtractor(nil, "", nil, time.Second)

	assert.False(t, e.NeedsExtraction(rss.Item{Link: "https://x.example.com/a", Content: "<p>" + paragraph + "</p>"}))
	assert.True(t, e.NeedsExtraction(rss.Item{Link: "https://x.example.com/a", Content: "<p>Short <b>teaser</b></p>"}))
	assert.False(t, e.NeedsExtraction(rss.Item{Content: "short"}), "no link to follow")
}
