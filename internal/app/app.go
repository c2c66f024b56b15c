package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/mainewire/internal/config"
	"github.com/deusflow/mainewire/internal/feeds"
	"github.com/deusflow/mainewire/internal/metrics"
	"github.com/deusflow/mainewire/internal/news"
	"github.com/deusflow/mainewire/internal/ratelimit"
	"github.com/deusflow/mainewire/internal/rss"
	"github.com/deusflow/mainewire/internal/scraper"
	"github.com/deusflow/mainewire/internal/storage"
)

const (
	DefaultNationalCap = 15
	sampleSize         = 5
)

// FeedFetcher fetches many feeds and returns their items in input order.
type FeedFetcher interface {
	FetchAll(ctx context.Context, ds []feeds.Descriptor) [][]rss.Item
}

type RunOptions struct {
	Save            bool
	IncludeNational bool
}

// Summary is the result of one run, returned by the trigger endpoints.
type Summary struct {
	Count       int          `json:"count"`
	VideoCount  int          `json:"videoCount"`
	Saved       int          `json:"saved"`
	SavedVideos int          `json:"savedVideos"`
	Skipped     int          `json:"skipped"`
	Timestamp   time.Time    `json:"timestamp"`
	Stories     []news.Story `json:"stories"`
	Videos      []news.Video `json:"videos"`
	Mode        string       `json:"mode"`
}

// Pipeline runs the fetch, normalize, classify, dedup and publish stages.
type Pipeline struct {
	registry    *feeds.Registry
	fetcher     FeedFetcher
	extractor   *scraper.Extractor
	normalizer  *scraper.Normalizer
	publisher   storage.ContentPublisher
	layout      storage.Layout
	nationalCap int
	now         func() time.Time
}

type Options struct {
	Registry    *feeds.Registry
	Fetcher     FeedFetcher
	Extractor   *scraper.Extractor // nil disables article page extraction
	Normalizer  *scraper.Normalizer
	Publisher   storage.ContentPublisher
	Layout      storage.Layout
	NationalCap int
	Now         func() time.Time
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Registry == nil {
		opts.Registry = feeds.Default()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = scraper.NewNormalizer("")
	}
	if opts.Layout == (storage.Layout{}) {
		opts.Layout = storage.DefaultLayout()
	}
	if opts.NationalCap <= 0 {
		opts.NationalCap = DefaultNationalCap
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		registry:    opts.Registry,
		fetcher:     opts.Fetcher,
		extractor:   opts.Extractor,
		normalizer:  opts.Normalizer,
		publisher:   opts.Publisher,
		layout:      opts.Layout,
		nationalCap: opts.NationalCap,
		now:         opts.Now,
	}
}

// New wires a pipeline from configuration.
func New(cfg *config.Config) (*Pipeline, error) {
	registry, err := feeds.LoadOrDefault(cfg.FeedsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load feeds: %w", err)
	}

	layout := storage.Layout{ArticlesDir: cfg.ArticlesDir, VideosDir: cfg.VideosDir}

	var publisher storage.ContentPublisher
	if cfg.IsProd() {
		publisher = storage.NewGitHubPublisher(cfg.GitHubToken, storage.GitHubOptions{
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Branch:  cfg.GitHubBranch,
			Layout:  layout,
			Retries: cfg.CommitRetries,
			Backoff: cfg.CommitBackoff,
		})
	} else {
		publisher = storage.NewLocalFilePublisher(cfg.ContentRoot)
	}

	var extractor *scraper.Extractor
	if cfg.ExtractArticles {
		limiter := ratelimit.NewHostLimiter(cfg.ExtractPerSecond)
		extractor = scraper.NewExtractor(nil, cfg.UserAgent, limiter, cfg.FetchTimeout)
	}

	slog.Info("Pipeline configured",
		"mode", publisher.Mode(),
		"article_feeds", len(registry.Articles),
		"video_feeds", len(registry.Videos),
		"extract_articles", extractor != nil)

	return NewPipeline(Options{
		Registry: registry,
		Fetcher: rss.NewFetcher(rss.Options{
			UserAgent:   cfg.UserAgent,
			Timeout:     cfg.FetchTimeout,
			Concurrency: cfg.FetchConcurrency,
		}),
		Extractor:   extractor,
		Normalizer:  scraper.NewNormalizer(cfg.FallbackImage),
		Publisher:   publisher,
		Layout:      layout,
		NationalCap: cfg.NationalCap,
	}), nil
}

func (p *Pipeline) Mode() string {
	if p.publisher == nil {
		return ""
	}
	return p.publisher.Mode()
}

// Run performs one full pass. On a publish failure the summary built so far
// is returned together with the error.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	start := p.now()
	summary := &Summary{Timestamp: start, Mode: p.Mode()}

	slog.Info("Run started", "state", "fetching", "save", opts.Save, "national", opts.IncludeNational)

	articleItems := p.fetcher.FetchAll(ctx, p.registry.Articles)
	videoItems := p.fetcher.FetchAll(ctx, p.registry.Videos)
	if err := ctx.Err(); err != nil {
		return p.fail(summary, start, fmt.Errorf("run cancelled while fetching: %w", err))
	}

	slog.Info("Run progress", "state", "classifying")

	maine, national := p.buildStories(ctx, articleItems, start)
	slog.Info("Stories classified",
		news.PoolMaine.String(), len(maine),
		news.PoolNational.String(), len(national))
	if p.extractor != nil {
		slog.Debug("Article extraction", "limiter", p.extractor.LimiterStats())
	}
	national = news.TopByUrgency(national, p.nationalCap)

	stories := maine
	if opts.IncludeNational {
		stories = append(stories, national...)
	}
	news.SortByUrgency(stories)

	videos := p.buildVideos(videoItems, start)

	summary.Count = len(stories)
	summary.VideoCount = len(videos)
	summary.Stories = head(stories, sampleSize)
	summary.Videos = head(videos, sampleSize)

	if !opts.Save {
		slog.Info("Run finished without saving", "state", "done", "stories", len(stories), "videos", len(videos))
		p.record(summary, start)
		return summary, nil
	}

	slog.Info("Run progress", "state", "publishing")

	existing, err := p.publisher.ExistingSlugs(ctx)
	if err != nil {
		return p.fail(summary, start, fmt.Errorf("failed to load existing slugs: %w", err))
	}

	records, skipped := p.buildRecords(stories, videos, existing)
	summary.Skipped = skipped

	result, err := p.publisher.Publish(ctx, records)
	if err != nil {
		return p.fail(summary, start, fmt.Errorf("failed to publish: %w", err))
	}

	summary.Saved = result.Saved
	summary.SavedVideos = result.SavedVideos
	summary.Skipped += result.Skipped

	slog.Info("Run finished",
		"state", "done",
		"stories", summary.Count,
		"videos", summary.VideoCount,
		"saved", summary.Saved,
		"saved_videos", summary.SavedVideos,
		"skipped", summary.Skipped,
		"duration", p.now().Sub(start))

	p.record(summary, start)
	return summary, nil
}

// buildStories normalizes and classifies every article item and splits the
// result into the Maine and national pools. Items matching neither are dropped.
func (p *Pipeline) buildStories(ctx context.Context, perFeed [][]rss.Item, runTime time.Time) (maine, national []news.Story) {
	for _, items := range perFeed {
		for i := range items {
			item := items[i]
			if p.extractor != nil && ctx.Err() == nil && p.extractor.NeedsExtraction(item) {
				p.extractor.Enrich(ctx, &item)
			}

			story, pool := p.buildStory(item, runTime)
			switch pool {
			case news.PoolMaine:
				maine = append(maine, story)
			case news.PoolNational:
				national = append(national, story)
			default:
				slog.Debug("Story has no Maine location, dropping", "title", story.Title, "source", story.Source)
			}
		}
	}
	return maine, national
}

func (p *Pipeline) buildStory(item rss.Item, runTime time.Time) (news.Story, news.Pool) {
	norm := p.normalizer.Normalize(item)
	c := news.Classify(item.Title, norm.Excerpt, norm.Content, item.Feed)

	published := runTime
	if item.Published != nil && !item.Published.IsZero() {
		published = *item.Published
	}

	story := news.Story{
		Title:         item.Title,
		Excerpt:       norm.Excerpt,
		Content:       norm.Content,
		Source:        item.Feed.SourceName,
		SourceURL:     item.Link,
		Category:      c.Category,
		Region:        c.Region,
		Locations:     c.Locations,
		PublishedDate: published,
		Urgency:       c.Urgency,
		Author:        item.Author,
		Image:         norm.Image,
		FeedKind:      item.Feed.Kind,
		IsNational:    item.Feed.IsNational(),
	}
	return story, news.PoolFor(c, item.Feed)
}

func (p *Pipeline) buildVideos(perFeed [][]rss.Item, runTime time.Time) []news.Video {
	var videos []news.Video
	for _, items := range perFeed {
		for _, item := range items {
			videos = append(videos, toVideo(item, runTime))
		}
	}
	return videos
}

func toVideo(item rss.Item, runTime time.Time) news.Video {
	videoURL := item.Link
	if videoURL == "" && item.VideoID != "" {
		videoURL = "https://www.youtube.com/watch?v=" + item.VideoID
	}

	thumbnail := item.MediaThumbnail
	if thumbnail == "" && item.VideoID != "" {
		thumbnail = "https://i.ytimg.com/vi/" + item.VideoID + "/hqdefault.jpg"
	}

	published := runTime
	if item.Published != nil && !item.Published.IsZero() {
		published = *item.Published
	}

	return news.Video{
		Title:         item.Title,
		VideoURL:      videoURL,
		Thumbnail:     thumbnail,
		Views:         item.Views,
		Category:      news.CategoryVideo,
		PublishedDate: published,
		Description:   strings.TrimSpace(item.Description),
		Source:        item.Feed.SourceName,
	}
}

// buildRecords renders every story and video whose slug is new to both the
// publish target and this run. It returns the records and the number dropped.
func (p *Pipeline) buildRecords(stories []news.Story, videos []news.Video, existing *storage.SlugIndex) ([]storage.Record, int) {
	seen := storage.NewSlugIndex()
	var records []storage.Record
	skipped := 0

	accept := func(kind storage.Kind, title string) (string, bool) {
		slug := news.Slugify(title)
		switch {
		case slug == "":
			slog.Debug("Title has no usable slug, skipping", "kind", kind, "title", title)
		case existing.Contains(kind, slug):
			slog.Debug("Already published, skipping", "kind", kind, "slug", slug)
			metrics.RecordDuplicate(string(kind))
		case seen.Contains(kind, slug):
			slog.Debug("Duplicate within run, skipping", "kind", kind, "slug", slug)
			metrics.RecordDuplicate(string(kind))
		default:
			seen.Add(kind, slug)
			return slug, true
		}
		skipped++
		return "", false
	}

	for _, s := range stories {
		if slug, ok := accept(storage.KindArticle, s.Title); ok {
			records = append(records, storage.ArticleRecord(p.layout, slug, s))
		}
	}
	for _, v := range videos {
		if slug, ok := accept(storage.KindVideo, v.Title); ok {
			records = append(records, storage.VideoRecord(p.layout, slug, v))
		}
	}
	return records, skipped
}

func (p *Pipeline) record(s *Summary, start time.Time) {
	metrics.Global.RecordRun(metrics.RunStats{
		Stories:      s.Count,
		Videos:       s.VideoCount,
		SavedStories: s.Saved,
		SavedVideos:  s.SavedVideos,
		Skipped:      s.Skipped,
		Mode:         s.Mode,
		Duration:     p.now().Sub(start),
	})
}

func (p *Pipeline) fail(s *Summary, start time.Time, err error) (*Summary, error) {
	slog.Error("Run failed", "state", "done", "error", err)
	metrics.Global.SetError(err.Error(), p.now().Sub(start))
	return s, err
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	return append([]T{}, items...)
}
