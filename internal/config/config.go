// Package config loads runtime settings from command-line flags and the environment.
package config

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type Config struct {
	// HTTP trigger
	Port       string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	ScrapeKey  string `long:"scrape-key" env:"SCRAPER_KEY" description:"Shared secret for /api/scrape (?key=)"`
	CronSecret string `long:"cron-secret" env:"CRON_SECRET" description:"Bearer token accepted by /api/cron"`
	CronKey    string `long:"cron-key" env:"CRON_KEY" description:"Query key accepted by /api/cron"`
	Schedule   string `long:"schedule" env:"SCRAPE_SCHEDULE" description:"Optional cron spec for in-process runs (empty disables)"`

	// Publishing
	Mode          string        `long:"mode" env:"PUBLISH_MODE" default:"dev" choice:"dev" choice:"prod" description:"dev writes files locally, prod commits through the GitHub API"`
	ContentRoot   string        `long:"content-root" env:"CONTENT_ROOT" default:"." description:"Local root directory for dev mode"`
	ArticlesDir   string        `long:"articles-dir" env:"ARTICLES_DIR" default:"content/articles" description:"Repository path for article files"`
	VideosDir     string        `long:"videos-dir" env:"VIDEOS_DIR" default:"content/videos" description:"Repository path for video files"`
	GitHubToken   string        `long:"github-token" env:"GITHUB_TOKEN" description:"Token for the GitHub API (prod)"`
	GitHubOwner   string        `long:"github-owner" env:"GITHUB_OWNER" description:"Repository owner (prod)"`
	GitHubRepo    string        `long:"github-repo" env:"GITHUB_REPO" description:"Repository name (prod)"`
	GitHubBranch  string        `long:"github-branch" env:"GITHUB_BRANCH" default:"main" description:"Branch to commit to (prod)"`
	CommitRetries int           `long:"commit-retries" env:"COMMIT_RETRIES" default:"3" description:"Attempts for the commit when the branch moved concurrently"`
	CommitBackoff time.Duration `long:"commit-backoff" env:"COMMIT_BACKOFF" default:"2s" description:"Base delay between commit attempts"`

	// Fetching
	FeedsFile        string        `long:"feeds-file" env:"FEEDS_FILE" description:"YAML file replacing the built-in feed registry"`
	FetchTimeout     time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"20s" description:"Deadline for a single feed fetch"`
	FetchConcurrency int           `long:"fetch-concurrency" env:"FETCH_CONCURRENCY" default:"4" description:"Feeds fetched in parallel"`
	UserAgent        string        `long:"user-agent" env:"USER_AGENT" description:"Browser User-Agent sent to feed sources"`
	ExtractArticles  bool          `long:"extract-articles" env:"EXTRACT_ARTICLES" description:"Fetch the article page when the feed body is too short"`
	ExtractPerSecond float64       `long:"extract-rate" env:"EXTRACT_RATE" default:"1" description:"Article page requests per second per host"`

	// Pipeline
	NationalCap   int    `long:"national-cap" env:"NATIONAL_CAP" default:"15" description:"Maximum national stories per run"`
	FallbackImage string `long:"fallback-image" env:"FALLBACK_IMAGE" default:"/images/news-placeholder.jpg" description:"Image used when a story has none"`

	// Logging
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"Log output format"`
}

// Load parses args (normally os.Args[1:]) together with the environment.
// It returns nil, nil when help was requested.
func Load(args []string) (*Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeProd {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeProd, c.Mode)
	}
	if c.Mode == ModeProd {
		if c.GitHubToken == "" {
			return fmt.Errorf("GITHUB_TOKEN is required in prod mode")
		}
		if c.GitHubOwner == "" || c.GitHubRepo == "" {
			return fmt.Errorf("GITHUB_OWNER and GITHUB_REPO are required in prod mode")
		}
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("fetch concurrency must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.NationalCap < 1 {
		return fmt.Errorf("national cap must be at least 1")
	}
	if c.CommitRetries < 1 {
		c.CommitRetries = 1
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Mode == ModeProd
}
