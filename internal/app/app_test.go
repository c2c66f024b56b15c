package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/mainewire/internal/feeds"
	"github.com/deusflow/mainewire/internal/news"
	"github.com/deusflow/mainewire/internal/rss"
	"github.com/deusflow/mainewire/internal/storage"
)

var (
	maineFeed    = feeds.Descriptor{URL: "https://herald.example.com/feed", SourceName: "Herald", Kind: feeds.KindMaine}
	nationalFeed = feeds.Descriptor{URL: "https://wire.example.com/feed", SourceName: "Wire", Kind: feeds.KindNational}
	videoFeed    = feeds.Descriptor{URL: "https://video.example.com/feed", SourceName: "WTEST", Kind: feeds.KindBroadcast}
)

// staticFetcher serves canned items keyed by feed URL.
type staticFetcher map[string][]rss.Item

func (f staticFetcher) FetchAll(ctx context.Context, ds []feeds.Descriptor) [][]rss.Item {
	out := make([][]rss.Item, len(ds))
	for i, d := range ds {
		for _, item := range f[d.URL] {
			item.Feed = d
			out[i] = append(out[i], item)
		}
	}
	return out
}

type fakePublisher struct {
	existing  *storage.SlugIndex
	err       error
	published []storage.Record
	calls     int
}

func (p *fakePublisher) Mode() string { return "fake" }

func (p *fakePublisher) ExistingSlugs(ctx context.Context) (*storage.SlugIndex, error) {
	if p.existing == nil {
		return storage.NewSlugIndex(), nil
	}
	return p.existing, nil
}

func (p *fakePublisher) Publish(ctx context.Context, records []storage.Record) (*storage.PublishResult, error) {
	p.calls++
	if p.err != nil {
		return &storage.PublishResult{}, p.err
	}
	p.published = append(p.published, records...)
	result := &storage.PublishResult{}
	for _, r := range records {
		if r.Kind == storage.KindVideo {
			result.SavedVideos++
		} else {
			result.Saved++
		}
	}
	return result, nil
}

func testRegistry() *feeds.Registry {
	return &feeds.Registry{
		Articles: []feeds.Descriptor{maineFeed, nationalFeed},
		Videos:   []feeds.Descriptor{videoFeed},
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
}

func newTestPipeline(fetcher FeedFetcher, pub storage.ContentPublisher) *Pipeline {
	return NewPipeline(Options{
		Registry:  testRegistry(),
		Fetcher:   fetcher,
		Publisher: pub,
		Now:       fixedNow,
	})
}

const portlandFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Test Herald</title>
  <link>https://herald.example.com</link>
  <item>
    <title>Portland man arrested in overnight crash</title>
    <link>https://herald.example.com/2024/05/01/crash/</link>
    <pubDate>Wed, 01 May 2024 08:30:00 -0400</pubDate>
    <description>Police said the driver fled on foot before officers caught up with him.</description>
    <content:encoded><![CDATA[<p>The crash happened shortly after 2 a.m. on Forest Avenue.</p>]]></content:encoded>
  </item>
  <item>
    <title>Recipe of the week: blueberry pie</title>
    <link>https://herald.example.com/2024/05/01/pie/</link>
    <description>A summer classic.</description>
  </item>
</channel>
</rss>`

const portlandVideos = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>WTEST</title>
  <entry>
    <id>yt:video:abc123</id>
    <yt:videoId>abc123</yt:videoId>
    <title>Storm update for Bangor</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123"/>
    <published>2024-05-01T12:00:00+00:00</published>
  </entry>
</feed>`

func TestRunPortlandEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprint(w, portlandFeed)
		case "/videos":
			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprint(w, portlandVideos)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	root := t.TempDir()
	p := NewPipeline(Options{
		Registry: &feeds.Registry{
			Articles: []feeds.Descriptor{
				{URL: srv.URL + "/rss", SourceName: "Test Herald", Kind: feeds.KindMaine},
				{URL: srv.URL + "/missing", SourceName: "Gone", Kind: feeds.KindMaine},
			},
			Videos: []feeds.Descriptor{{URL: srv.URL + "/videos", SourceName: "WTEST", Kind: feeds.KindBroadcast}},
		},
		Fetcher:   rss.NewFetcher(rss.Options{Client: srv.Client(), Timeout: 5 * time.Second}),
		Publisher: storage.NewLocalFilePublisher(root),
		Now:       fixedNow,
	})

	summary, err := p.Run(context.Background(), RunOptions{Save: true, IncludeNational: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Count, "the story without a Maine town is dropped")
	assert.Equal(t, 1, summary.VideoCount)
	assert.Equal(t, 1, summary.Saved)
	assert.Equal(t, 1, summary.SavedVideos)
	assert.Equal(t, storage.ModeLocal, summary.Mode)

	require.Len(t, summary.Stories, 1)
	story := summary.Stories[0]
	assert.Equal(t, news.CategoryCrime, story.Category)
	assert.Equal(t, []string{"Portland"}, story.Locations)
	assert.Equal(t, news.RegionSouthern, story.Region)

	data, err := os.ReadFile(filepath.Join(root, "content", "articles", "portland-man-arrested-in-overnight-crash.md"))
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, `title: "Portland man arrested in overnight crash"`)
	assert.Contains(t, doc, "category: crime\n")
	assert.Contains(t, doc, "publishedDate: 2024-05-01\n")
	assert.Contains(t, doc, "Forest Avenue")
	assert.Contains(t, doc, "*Locations: Portland*\n")
	assert.Contains(t, doc, "*Region: Southern*\n")

	_, err = os.Stat(filepath.Join(root, "content", "videos", "storm-update-for-bangor.md"))
	assert.NoError(t, err)

	again, err := p.Run(context.Background(), RunOptions{Save: true, IncludeNational: true})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Saved+again.SavedVideos, "a second run publishes nothing new")
	assert.Equal(t, 2, again.Skipped)
}

func TestRunNationalCapAndMerge(t *testing.T) {
	var national []rss.Item
	for i := 0; i < 20; i++ {
		title := fmt.Sprintf("Breaking: Senate vote number %d", i)
		if i%3 == 0 {
			title = "Urgent " + title
		}
		national = append(national, rss.Item{Title: title, Description: "<p>Lawmakers met in Washington.</p>"})
	}
	fetcher := staticFetcher{
		maineFeed.URL: {
			{Title: "Bangor council approves budget", Description: "<p>Bangor council met Tuesday.</p>"},
			{Title: "Augusta library reopens", Description: "<p>Doors open in Augusta.</p>"},
			{Title: "Recipe of the week", Description: "<p>Pie.</p>"},
		},
		nationalFeed.URL: national,
	}

	t.Run("maine only", func(t *testing.T) {
		pub := &fakePublisher{}
		summary, err := newTestPipeline(fetcher, pub).Run(context.Background(), RunOptions{Save: true})
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Count)
		assert.Len(t, pub.published, 2)
	})

	t.Run("with national", func(t *testing.T) {
		pub := &fakePublisher{}
		summary, err := newTestPipeline(fetcher, pub).Run(context.Background(), RunOptions{Save: true, IncludeNational: true})
		require.NoError(t, err)
		assert.Equal(t, 2+DefaultNationalCap, summary.Count)
		assert.Len(t, summary.Stories, 5)

		require.Len(t, pub.published, 2+DefaultNationalCap)
		for i, r := range pub.published {
			switch {
			case i < 7:
				assert.True(t, strings.HasPrefix(r.Slug, "urgent-breaking-"), r.Slug)
			case i < DefaultNationalCap:
				assert.True(t, strings.HasPrefix(r.Slug, "breaking-"), r.Slug)
			default:
				assert.NotContains(t, r.Slug, "senate", "maine stories sort after more urgent national ones")
			}
		}
		assert.True(t, pub.published[0].Kind == storage.KindArticle)
	})
}

func TestRunDeduplicates(t *testing.T) {
	existing := storage.NewSlugIndex()
	existing.Add(storage.KindArticle, "bangor-council-approves-budget")
	existing.Add(storage.KindVideo, "morning-news")

	fetcher := staticFetcher{
		maineFeed.URL: {
			{Title: "Bangor council approves budget", Description: "<p>Bangor</p>"},
			{Title: "Bangor school board meets", Description: "<p>Bangor</p>"},
			{Title: "Bangor School Board Meets!", Description: "<p>Bangor again</p>"},
			{Title: "!!! ???", Description: "<p>News from Bangor</p>"},
		},
		videoFeed.URL: {
			{Title: "Morning news", Link: "https://www.youtube.com/watch?v=a"},
			{Title: "Evening news", VideoID: "b"},
		},
	}
	pub := &fakePublisher{existing: existing}

	summary, err := newTestPipeline(fetcher, pub).Run(context.Background(), RunOptions{Save: true})
	require.NoError(t, err)

	require.Len(t, pub.published, 2)
	assert.Equal(t, "content/articles/bangor-school-board-meets.md", pub.published[0].Path)
	assert.Equal(t, "content/videos/evening-news.md", pub.published[1].Path)
	assert.Contains(t, pub.published[1].Content, `videoUrl: "https://www.youtube.com/watch?v=b"`)
	assert.Contains(t, pub.published[1].Content, `thumbnail: "https://i.ytimg.com/vi/b/hqdefault.jpg"`)

	assert.Equal(t, 4, summary.Skipped)
	assert.Equal(t, 1, summary.Saved)
	assert.Equal(t, 1, summary.SavedVideos)
}

func TestRunWithoutSaveSkipsPublisher(t *testing.T) {
	fetcher := staticFetcher{
		maineFeed.URL: {{Title: "Bangor council approves budget", Description: "<p>Bangor</p>"}},
	}
	pub := &fakePublisher{}

	summary, err := newTestPipeline(fetcher, pub).Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 0, summary.Saved)
	assert.Equal(t, 0, pub.calls)
	assert.Equal(t, fixedNow(), summary.Stories[0].PublishedDate, "missing dates fall back to the run time")
}

func TestRunPublishErrorReturnsPartialSummary(t *testing.T) {
	fetcher := staticFetcher{
		maineFeed.URL: {{Title: "Bangor council approves budget", Description: "<p>Bangor</p>"}},
	}
	pub := &fakePublisher{err: &storage.StepError{Step: storage.StepUpdateRef, Name: "update ref", Err: errors.New("conflict")}}

	summary, err := newTestPipeline(fetcher, pub).Run(context.Background(), RunOptions{Save: true})
	require.Error(t, err)

	var stepErr *storage.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, storage.StepUpdateRef, stepErr.Step)

	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 0, summary.Saved)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &fakePublisher{}
	_, err := newTestPipeline(staticFetcher{}, pub).Run(ctx, RunOptions{Save: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, pub.calls)
}
