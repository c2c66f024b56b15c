package news

import (
	"strings"

	"github.com/deusflow/mainewire/internal/feeds"
)

// Classification is the heuristic labelling of one story.
type Classification struct {
	Category  string
	Locations []string
	Region    string
	Urgency   int
}

// Classify labels a story from its text and the feed it came from.
//
// Category precedence: obituary terms in the title, then health feeds, then
// the highest keyword score in the title (earlier table entry on ties), then
// national or local depending on the feed.
func Classify(title, excerpt, content string, feed feeds.Descriptor) Classification {
	locations := DetectLocations(title + " " + excerpt + " " + content)
	return Classification{
		Category:  categorize(title, feed),
		Locations: locations,
		Region:    RegionFor(locations),
		Urgency:   urgencyKeywords.count(strings.ToLower(title + " " + excerpt)),
	}
}

func categorize(title string, feed feeds.Descriptor) string {
	lower := strings.ToLower(title)

	if obituaryKeywords.containsAny(lower) {
		return CategoryObituaries
	}
	if feed.Kind == feeds.KindHealth {
		return CategoryHealth
	}

	best, bestScore := "", 0
	for _, rule := range categoryTable {
		if score := rule.keywords.count(lower); score > bestScore {
			best, bestScore = rule.name, score
		}
	}
	if best != "" {
		return best
	}

	if feed.IsNational() {
		return CategoryNational
	}
	return CategoryLocal
}

type Pool int

const (
	PoolNone Pool = iota
	PoolMaine
	PoolNational
)

func (p Pool) String() string {
	switch p {
	case PoolMaine:
		return "maine"
	case PoolNational:
		return "national"
	}
	return "none"
}

// PoolFor decides where a classified story goes. Local feeds only contribute
// stories that name at least one Maine town.
func PoolFor(c Classification, feed feeds.Descriptor) Pool {
	if feed.IsNational() {
		return PoolNational
	}
	if len(c.Locations) > 0 {
		return PoolMaine
	}
	return PoolNone
}
