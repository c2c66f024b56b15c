package scraper

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/mainewire/internal/rss"
)

// pickImage walks the fallback chain and returns the first usable absolute
// image URL, or "" when nothing qualifies.
func pickImage(item rss.Item, rawHTML, markdown string) string {
	candidates := []func() string{
		func() string { return item.EnclosureURL },
		func() string { return item.MediaContent },
		func() string { return item.MediaThumbnail },
		func() string { return item.ImageURL },
		func() string { return firstHTMLImage(rawHTML) },
		func() string { return firstMarkdownImage(markdown) },
	}

	for _, candidate := range candidates {
		if u := normalizeImageURL(candidate(), item.Link, item.Feed.URL); u != "" {
			return u
		}
	}
	return ""
}

// normalizeImageURL makes raw absolute. Protocol-relative URLs become https,
// relative ones resolve against the item link and then the feed URL.
func normalizeImageURL(raw, link, feedURL string) string {
	raw = strings.TrimSpace(html.UnescapeString(raw))
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return ""
		}
		return u.String()
	}

	for _, b := range []string{link, feedURL} {
		base, err := url.Parse(strings.TrimSpace(b))
		if err != nil || !base.IsAbs() || base.Host == "" {
			continue
		}
		return base.ResolveReference(u).String()
	}
	return ""
}

func isSVG(src string) bool {
	lower := strings.ToLower(src)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	return strings.HasSuffix(lower, ".svg")
}

// firstHTMLImage returns the first editorial <img> in raw feed HTML.
func firstHTMLImage(rawHTML string) string {
	if !strings.Contains(strings.ToLower(rawHTML), "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src := imgSource(s)
		if src == "" || isSVG(src) {
			return true
		}
		alt, _ := s.Attr("alt")
		class, _ := s.Attr("class")
		if isDecorative(src, alt, class) {
			return true
		}
		if w, _ := s.Attr("width"); w == "1" {
			return true
		}
		found = src
		return false
	})
	return found
}

// imgSource prefers a real src over lazy-loading placeholders.
func imgSource(s *goquery.Selection) string {
	if src, ok := s.Attr("src"); ok && src != "" && !strings.HasPrefix(strings.ToLower(src), "data:") {
		return src
	}
	for _, attr := range []string{"data-src", "data-lazy-src", "data-original"} {
		if src, ok := s.Attr(attr); ok && src != "" {
			return src
		}
	}
	if srcset, ok := s.Attr("srcset"); ok {
		first, _, _ := strings.Cut(strings.TrimSpace(srcset), ",")
		if fields := strings.Fields(first); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

var markdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(\s*<?([^)\s>]+)`)

func firstMarkdownImage(markdown string) string {
	for _, m := range markdownImage.FindAllStringSubmatch(markdown, -1) {
		alt, src := m[1], m[2]
		if isSVG(src) || isDecorative(src, alt) {
			continue
		}
		return src
	}
	return ""
}
