package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deusflow/mainewire/internal/news"
)

const dateLayout = "2006-01-02"

// quoteOrNull renders s as a quoted scalar, or null when empty.
func quoteOrNull(s string) string {
	if s == "" {
		return "null"
	}
	return strconv.Quote(s)
}

// sourceLine links the source name, or names it bare when there is no link.
func sourceLine(name, link string) string {
	if link == "" {
		return fmt.Sprintf("*Source: %s*\n", name)
	}
	return fmt.Sprintf("*Source: [%s](%s)*\n", name, link)
}

// RenderArticle renders a story as frontmatter followed by its body and a
// source footer.
func RenderArticle(s news.Story) string {
	author := s.Author
	if author == "" {
		author = s.Source
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", strconv.Quote(s.Title))
	fmt.Fprintf(&b, "image: %s\n", quoteOrNull(s.Image))
	fmt.Fprintf(&b, "author: %s\n", strconv.Quote(author))
	fmt.Fprintf(&b, "publishedDate: %s\n", s.PublishedDate.Format(dateLayout))
	fmt.Fprintf(&b, "category: %s\n", s.Category)
	fmt.Fprintf(&b, "isNational: %t\n", s.IsNational)
	fmt.Fprintf(&b, "sourceUrl: %s\n", strconv.Quote(s.SourceURL))
	b.WriteString("---\n\n")

	body := strings.TrimSpace(s.Content)
	if body == "" {
		body = s.Excerpt
	}
	b.WriteString(body)
	b.WriteString("\n\n---\n\n")

	b.WriteString(sourceLine(s.Source, s.SourceURL))
	if len(s.Locations) > 0 {
		fmt.Fprintf(&b, "*Locations: %s*\n", strings.Join(s.Locations, ", "))
	}
	if s.Region != "" {
		fmt.Fprintf(&b, "*Region: %s*\n", s.Region)
	}
	return b.String()
}

func RenderVideo(v news.Video) string {
	category := v.Category
	if category == "" {
		category = news.CategoryVideo
	}

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", strconv.Quote(v.Title))
	fmt.Fprintf(&b, "videoUrl: %s\n", strconv.Quote(v.VideoURL))
	fmt.Fprintf(&b, "thumbnail: %s\n", quoteOrNull(v.Thumbnail))
	fmt.Fprintf(&b, "duration: %s\n", quoteOrNull(v.Duration))
	fmt.Fprintf(&b, "views: %d\n", v.Views)
	fmt.Fprintf(&b, "category: %s\n", category)
	fmt.Fprintf(&b, "publishedDate: %s\n", v.PublishedDate.Format(dateLayout))
	fmt.Fprintf(&b, "source: %s\n", strconv.Quote(v.Source))
	b.WriteString("---\n\n")

	if desc := strings.TrimSpace(v.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}
	b.WriteString("---\n\n")
	b.WriteString(sourceLine(v.Source, v.VideoURL))
	return b.String()
}

// ArticleRecord builds the publish record for a story with a known slug.
func ArticleRecord(layout Layout, slug string, s news.Story) Record {
	return Record{
		Path:    layout.PathFor(KindArticle, slug),
		Content: RenderArticle(s),
		Slug:    slug,
		Kind:    KindArticle,
	}
}

func VideoRecord(layout Layout, slug string, v news.Video) Record {
	return Record{
		Path:    layout.PathFor(KindVideo, slug),
		Content: RenderVideo(v),
		Slug:    slug,
		Kind:    KindVideo,
	}
}
