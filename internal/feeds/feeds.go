// Package feeds holds the static registry of article and video feeds.
package feeds

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindMaine     Kind = "maine"
	KindNational  Kind = "national"
	KindHealth    Kind = "health"
	KindBroadcast Kind = "broadcast"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMaine, KindNational, KindHealth, KindBroadcast:
		return true
	}
	return false
}

// Descriptor identifies one syndication feed.
type Descriptor struct {
	URL        string `yaml:"url"`
	SourceName string `yaml:"source"`
	Kind       Kind   `yaml:"kind"`
	// National marks non-national kinds (e.g. a national health desk) as national.
	National bool `yaml:"national"`
}

func (d Descriptor) IsNational() bool {
	return d.Kind == KindNational || d.National
}

// Registry is the full set of feeds consumed by one run.
type Registry struct {
	Articles []Descriptor `yaml:"articles"`
	Videos   []Descriptor `yaml:"videos"`
}

// Load reads a registry from YAML:
//
//	articles:
//	  - url: https://...
//	    source: Portland Press Herald
//	    kind: maine
//	videos:
//	  - url: https://www.youtube.com/feeds/videos.xml?channel_id=...
//	    source: WMTW
//	    kind: broadcast
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feeds file %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrDefault returns the built-in registry when path is empty.
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (r *Registry) Validate() error {
	if len(r.Articles) == 0 && len(r.Videos) == 0 {
		return fmt.Errorf("registry has no feeds")
	}
	for i, d := range r.Articles {
		if d.URL == "" || d.SourceName == "" {
			return fmt.Errorf("article feed at index %d: url and source are required", i)
		}
		if !d.Kind.Valid() {
			return fmt.Errorf("article feed at index %d: invalid kind %q", i, d.Kind)
		}
	}
	for i, d := range r.Videos {
		if d.URL == "" || d.SourceName == "" {
			return fmt.Errorf("video feed at index %d: url and source are required", i)
		}
		if d.Kind == "" {
			r.Videos[i].Kind = KindBroadcast
		}
	}
	return nil
}

// Default is the registry compiled into the binary.
func Default() *Registry {
	return &Registry{
		Articles: []Descriptor{
			{URL: "https://www.pressherald.com/feed/", SourceName: "Portland Press Herald", Kind: KindMaine},
			{URL: "https://www.bangordailynews.com/feed/", SourceName: "Bangor Daily News", Kind: KindMaine},
			{URL: "https://www.mainepublic.org/news.rss", SourceName: "Maine Public", Kind: KindMaine},
			{URL: "https://www.centralmaine.com/feed/", SourceName: "Central Maine", Kind: KindMaine},
			{URL: "https://www.sunjournal.com/feed/", SourceName: "Sun Journal", Kind: KindMaine},
			{URL: "https://www.penbaypilot.com/rss.xml", SourceName: "Penobscot Bay Pilot", Kind: KindMaine},
			{URL: "https://www.wmtw.com/local-news-rss", SourceName: "WMTW", Kind: KindBroadcast},
			{URL: "https://wgme.com/news/local.rss", SourceName: "WGME", Kind: KindBroadcast},
			{URL: "https://www.newscentermaine.com/feeds/syndication/rss/news/local", SourceName: "NEWS CENTER Maine", Kind: KindBroadcast},
			{URL: "https://feeds.npr.org/1001/rss.xml", SourceName: "NPR", Kind: KindNational},
			{URL: "https://feeds.apnews.com/rss/apf-topnews", SourceName: "Associated Press", Kind: KindNational},
			{URL: "https://rss.nytimes.com/services/xml/rss/nyt/US.xml", SourceName: "The New York Times", Kind: KindNational},
			{URL: "https://www.maine.gov/dhhs/mecdc/news/rss.xml", SourceName: "Maine CDC", Kind: KindHealth},
			{URL: "https://feeds.npr.org/1128/rss.xml", SourceName: "NPR Health", Kind: KindHealth, National: true},
		},
		Videos: []Descriptor{
			{URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCOe9HYjT6fBd2QEzIvqvnDg", SourceName: "WMTW", Kind: KindBroadcast},
			{URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCzLM9UkKCaQ7lcTbPf-4fqQ", SourceName: "WGME", Kind: KindBroadcast},
			{URL: "https://www.youtube.com/feeds/videos.xml?channel_id=UCsNdVXtSuf5VZmWW3WHXR1g", SourceName: "NEWS CENTER Maine", Kind: KindBroadcast},
		},
	}
}
