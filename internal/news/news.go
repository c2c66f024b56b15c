package news

import (
	"time"

	"github.com/deusflow/mainewire/internal/feeds"
)

const (
	CategoryCrime       = "crime"
	CategoryPolitics    = "politics"
	CategoryBusiness    = "business"
	CategoryEducation   = "education"
	CategoryWeather     = "weather"
	CategorySports      = "sports"
	CategoryEnvironment = "environment"
	CategoryHealth      = "health"
	CategoryCommunity   = "community"
	CategoryObituaries  = "obituaries"
	CategoryNational    = "national"
	CategoryLocal       = "local"
	CategoryVideo       = "video"
)

// Story is a normalized, classified article ready to be rendered.
type Story struct {
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"-"`
	Source        string     `json:"source"`
	SourceURL     string     `json:"sourceUrl"`
	Category      string     `json:"category"`
	Region        string     `json:"region,omitempty"`
	Locations     []string   `json:"locations"`
	PublishedDate time.Time  `json:"publishedDate"`
	Urgency       int        `json:"urgency"`
	Author        string     `json:"author,omitempty"`
	Image         string     `json:"image"`
	FeedKind      feeds.Kind `json:"feedKind"`
	IsNational    bool       `json:"isNational"`
}

// Video is a broadcast clip taken from a video feed.
type Video struct {
	Title         string    `json:"title"`
	VideoURL      string    `json:"videoUrl"`
	Thumbnail     string    `json:"thumbnail"`
	Duration      string    `json:"duration,omitempty"`
	Views         int64     `json:"views"`
	Category      string    `json:"category"`
	PublishedDate time.Time `json:"publishedDate"`
	Description   string    `json:"description"`
	Source        string    `json:"source"`
}
