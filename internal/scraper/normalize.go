// Package scraper turns raw feed items into clean markdown bodies.
package scraper

import (
	"html"
	"log/slog"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"

	"github.com/deusflow/mainewire/internal/rss"
)

const DefaultFallbackImage = "/images/news-placeholder.jpg"

// Normalized is the cleaned form of one feed item.
type Normalized struct {
	Content string
	Excerpt string
	Image   string
}

// Normalizer is not safe for concurrent use.
type Normalizer struct {
	policy        *bluemonday.Policy
	strict        *bluemonday.Policy
	converter     *md.Converter
	fallbackImage string
}

func NewNormalizer(fallbackImage string) *Normalizer {
	if fallbackImage == "" {
		fallbackImage = DefaultFallbackImage
	}
	return &Normalizer{
		policy:        bluemonday.UGCPolicy(),
		strict:        bluemonday.StrictPolicy(),
		converter:     md.NewConverter("", true, nil),
		fallbackImage: fallbackImage,
	}
}

// Normalize never fails; a broken item yields empty text and the fallback image.
func (n *Normalizer) Normalize(item rss.Item) Normalized {
	raw := item.Content
	if strings.TrimSpace(raw) == "" {
		raw = item.Description
	}

	body := n.toMarkdown(raw)
	body = cleanMarkdown(body)
	body = stripLeadingTitle(body, item.Title)

	image := pickImage(item, raw, body)
	if image == "" {
		image = n.fallbackImage
	}

	return Normalized{
		Content: body,
		Excerpt: makeExcerpt(body),
		Image:   image,
	}
}

func (n *Normalizer) toMarkdown(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	safe := n.policy.Sanitize(raw)
	out, err := n.converter.ConvertString(safe)
	if err != nil {
		slog.Debug("Markdown conversion failed, using plain text", "error", err)
		return strings.TrimSpace(html.UnescapeString(n.strict.Sanitize(raw)))
	}
	return out
}

// PlainTextLength is the rune count of raw HTML once all markup is removed.
func (n *Normalizer) PlainTextLength(raw string) int {
	text := strings.Join(strings.Fields(html.UnescapeString(n.strict.Sanitize(raw))), " ")
	return len([]rune(text))
}
