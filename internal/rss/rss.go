package rss

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/mainewire/internal/feeds"
	"github.com/deusflow/mainewire/internal/metrics"
)

// maxBodyBytes caps how much of a feed response is read before parsing.
const maxBodyBytes = 10 << 20

const (
	acceptHeader         = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.9, text/html;q=0.8, */*;q=0.7"
	acceptLanguageHeader = "en-US,en;q=0.9"
)

// Item is one entry of a syndication feed, flattened from gofeed and its
// media/YouTube extensions.
type Item struct {
	Title       string
	Link        string
	Published   *time.Time
	Content     string
	Description string
	Author      string

	EnclosureURL   string
	EnclosureType  string
	MediaContent   string
	MediaThumbnail string
	ImageURL       string

	VideoID string
	Views   int64

	Feed feeds.Descriptor
}

type Options struct {
	Client      *http.Client
	UserAgent   string
	Timeout     time.Duration
	Concurrency int
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	concurrency int
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:      opts.Client,
		userAgent:   opts.UserAgent,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.timeout <= 0 {
		f.timeout = 20 * time.Second
	}
	if f.concurrency < 1 {
		f.concurrency = 4
	}
	return f
}

// Fetch returns the items of a single feed. Any failure is logged and
// yields no items.
func (f *Fetcher) Fetch(ctx context.Context, d feeds.Descriptor) []Item {
	start := time.Now()
	items, err := f.fetch(ctx, d)
	metrics.RecordFeedFetch(d.SourceName, len(items), err)
	if err != nil {
		slog.Warn("Feed fetch failed", "feed", d.URL, "source", d.SourceName, "error", err)
		return nil
	}

	slog.Info("Loaded feed", "source", d.SourceName, "items", len(items), "duration", time.Since(start))
	return items
}

// FetchAll fetches every feed with bounded parallelism. The result is
// indexed like ds; a failed feed leaves an empty slot.
func (f *Fetcher) FetchAll(ctx context.Context, ds []feeds.Descriptor) [][]Item {
	results := make([][]Item, len(ds))

	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for i, d := range ds {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = f.Fetch(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if len(r) > 0 {
			ok++
		}
	}
	slog.Info("Processed feeds", "ok", ok, "total", len(ds))

	return results
}

func (f *Fetcher) fetch(ctx context.Context, d feeds.Descriptor) ([]Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	SetBrowserHeaders(req, f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, toItem(it, d))
	}
	return items, nil
}

// SetBrowserHeaders makes req look like it came from a desktop browser.
// Several newsroom CDNs reject the default Go client.
func SetBrowserHeaders(req *http.Request, userAgent string) {
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)
	req.Header.Set("Cache-Control", "no-cache")
	if req.URL != nil && req.URL.Host != "" {
		origin := url.URL{Scheme: req.URL.Scheme, Host: req.URL.Host, Path: "/"}
		req.Header.Set("Referer", origin.String())
	}
}

func toItem(it *gofeed.Item, d feeds.Descriptor) Item {
	item := Item{
		Title:       strings.TrimSpace(it.Title),
		Link:        strings.TrimSpace(it.Link),
		Content:     it.Content,
		Description: it.Description,
		Feed:        d,
	}

	switch {
	case it.PublishedParsed != nil:
		item.Published = it.PublishedParsed
	case it.UpdatedParsed != nil:
		item.Published = it.UpdatedParsed
	}

	switch {
	case it.Author != nil && it.Author.Name != "":
		item.Author = it.Author.Name
	case len(it.Authors) > 0 && it.Authors[0] != nil:
		item.Author = it.Authors[0].Name
	case it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0:
		item.Author = it.DublinCoreExt.Creator[0]
	}
	item.Author = strings.TrimSpace(item.Author)

	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "image/") {
			item.EnclosureURL = enc.URL
			item.EnclosureType = enc.Type
			break
		}
	}

	if it.Image != nil {
		item.ImageURL = it.Image.URL
	}

	media := it.Extensions["media"]
	item.MediaContent = firstImageContent(media["content"])
	item.MediaThumbnail = firstAttr(media["thumbnail"], "url")

	// YouTube and some broadcasters nest everything under media:group.
	if groups := media["group"]; len(groups) > 0 {
		g := groups[0].Children
		if item.MediaContent == "" {
			item.MediaContent = firstImageContent(g["content"])
		}
		if item.MediaThumbnail == "" {
			item.MediaThumbnail = firstAttr(g["thumbnail"], "url")
		}
		if item.Description == "" {
			if desc := g["description"]; len(desc) > 0 {
				item.Description = desc[0].Value
			}
		}
		if community := g["community"]; len(community) > 0 {
			views := firstAttr(community[0].Children["statistics"], "views")
			if n, err := strconv.ParseInt(views, 10, 64); err == nil {
				item.Views = n
			}
		}
	}

	if ids := it.Extensions["yt"]["videoId"]; len(ids) > 0 {
		item.VideoID = strings.TrimSpace(ids[0].Value)
	}

	return item
}

func firstAttr(exts []ext.Extension, attr string) string {
	for _, e := range exts {
		if v := strings.TrimSpace(e.Attrs[attr]); v != "" {
			return v
		}
	}
	return ""
}

// firstImageContent skips media:content entries that declare a non-image medium.
func firstImageContent(exts []ext.Extension) string {
	for _, e := range exts {
		medium := e.Attrs["medium"]
		typ := e.Attrs["type"]
		if medium != "" && medium != "image" {
			continue
		}
		if typ != "" && !strings.HasPrefix(typ, "image/") {
			continue
		}
		if v := strings.TrimSpace(e.Attrs["url"]); v != "" {
			return v
		}
	}
	return ""
}
