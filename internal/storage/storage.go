// Package storage publishes rendered content files, either to a local
// directory or as a single commit through the GitHub Git data API.
package storage

import (
	"context"
	"path"
	"strings"
)

type Kind string

const (
	KindArticle Kind = "articles"
	KindVideo   Kind = "videos"
)

// Record is one file to publish. Path is slash-separated and relative to
// the repository (or local content) root.
type Record struct {
	Path    string
	Content string
	Slug    string
	Kind    Kind
}

type PublishResult struct {
	Saved       int    // articles written
	SavedVideos int    // videos written
	Skipped     int    // records that already existed at the target
	Failed      int    // records that could not be written (local mode)
	CommitSHA   string // prod only
	Attempts    int    // commit protocol attempts (prod only)
}

// ContentPublisher is implemented by LocalFilePublisher and AtomicCommitPublisher.
type ContentPublisher interface {
	// ExistingSlugs returns the slugs already published, fetched once per run.
	ExistingSlugs(ctx context.Context) (*SlugIndex, error)
	// Publish writes all records. The prod implementation is all-or-nothing.
	Publish(ctx context.Context, records []Record) (*PublishResult, error)
	Mode() string
}

// Layout maps content kinds to repository directories.
type Layout struct {
	ArticlesDir string
	VideosDir   string
}

func DefaultLayout() Layout {
	return Layout{ArticlesDir: "content/articles", VideosDir: "content/videos"}
}

func (l Layout) Dir(kind Kind) string {
	if kind == KindVideo {
		return strings.Trim(l.VideosDir, "/")
	}
	return strings.Trim(l.ArticlesDir, "/")
}

func (l Layout) PathFor(kind Kind, slug string) string {
	return path.Join(l.Dir(kind), slug+".md")
}

// SlugIndex is the set of published slugs per kind.
type SlugIndex struct {
	slugs map[Kind]map[string]struct{}
}

func NewSlugIndex() *SlugIndex {
	return &SlugIndex{slugs: make(map[Kind]map[string]struct{})}
}

func (s *SlugIndex) Add(kind Kind, slug string) {
	set, ok := s.slugs[kind]
	if !ok {
		set = make(map[string]struct{})
		s.slugs[kind] = set
	}
	set[slug] = struct{}{}
}

func (s *SlugIndex) Contains(kind Kind, slug string) bool {
	if s == nil {
		return false
	}
	_, ok := s.slugs[kind][slug]
	return ok
}

func (s *SlugIndex) Len(kind Kind) int {
	if s == nil {
		return 0
	}
	return len(s.slugs[kind])
}

func countByKind(records []Record, result *PublishResult) {
	for _, r := range records {
		if r.Kind == KindVideo {
			result.SavedVideos++
		} else {
			result.Saved++
		}
	}
}
