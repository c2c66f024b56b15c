package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mainewire"

var (
	// FeedFetches counts feed fetches by outcome.
	FeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Total number of feed fetches",
		},
		[]string{"source", "status"},
	)

	// FeedFailures counts feeds that yielded nothing because of an error.
	FeedFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_failures_total",
			Help:      "Total number of failed feed fetches",
		},
		[]string{"source"},
	)

	FeedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_total",
			Help:      "Total number of items parsed from feeds",
		},
		[]string{"source"},
	)

	Extractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_extractions_total",
			Help:      "Total number of article page extractions",
		},
		[]string{"status"},
	)

	// DuplicatesSkipped counts items dropped because their slug already exists.
	DuplicatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Total number of items skipped as duplicates",
		},
		[]string{"kind"},
	)

	PublishedFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_files_total",
			Help:      "Total number of content files published",
		},
		[]string{"mode"},
	)

	PublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total number of failed publish operations",
		},
		[]string{"mode", "step"},
	)

	CommitAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_attempts_total",
			Help:      "Total number of commit protocol attempts",
		},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)
)

// RecordFeedFetch records the outcome of a single feed fetch.
func RecordFeedFetch(source string, items int, err error) {
	if err != nil {
		FeedFetches.WithLabelValues(source, "error").Inc()
		FeedFailures.WithLabelValues(source).Inc()
		return
	}
	FeedFetches.WithLabelValues(source, "ok").Inc()
	FeedItems.WithLabelValues(source).Add(float64(items))
}

func RecordExtraction(ok bool) {
	if ok {
		Extractions.WithLabelValues("ok").Inc()
		return
	}
	Extractions.WithLabelValues("error").Inc()
}

func RecordDuplicate(kind string) {
	DuplicatesSkipped.WithLabelValues(kind).Inc()
}

func RecordPublish(mode string, files int) {
	PublishedFiles.WithLabelValues(mode).Add(float64(files))
}

func RecordPublishError(mode, step string) {
	PublishErrors.WithLabelValues(mode, step).Inc()
}

// Metrics tracks process-level run health for /health.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns          int64
	FailedRuns         int64
	TotalStoriesSaved  int64
	TotalVideosSaved   int64
	DuplicatesSkipped  int64
	LastStoriesFound   int
	LastVideosFound    int
	LastPublishMode    string
	LastProcessingTime time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

// RunStats is what a finished run reports.
type RunStats struct {
	Stories      int
	Videos       int
	SavedStories int
	SavedVideos  int
	Skipped      int
	Mode         string
	Duration     time.Duration
}

func (m *Metrics) RecordRun(s RunStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRuns++
	m.TotalStoriesSaved += int64(s.SavedStories)
	m.TotalVideosSaved += int64(s.SavedVideos)
	m.DuplicatesSkipped += int64(s.Skipped)
	m.LastStoriesFound = s.Stories
	m.LastVideosFound = s.Videos
	m.LastPublishMode = s.Mode
	m.LastProcessingTime = s.Duration
	m.LastRunTime = time.Now()
	m.IsHealthy = true

	RunDuration.WithLabelValues("ok").Observe(s.Duration.Seconds())
}

func (m *Metrics) SetError(err string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRuns++
	m.FailedRuns++
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.LastRunTime = m.LastErrorTime
	m.IsHealthy = false

	RunDuration.WithLabelValues("error").Observe(duration.Seconds())
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]interface{}{
		"total_runs":              m.TotalRuns,
		"failed_runs":             m.FailedRuns,
		"total_stories_saved":     m.TotalStoriesSaved,
		"total_videos_saved":      m.TotalVideosSaved,
		"duplicates_skipped":      m.DuplicatesSkipped,
		"last_stories_found":      m.LastStoriesFound,
		"last_videos_found":       m.LastVideosFound,
		"last_publish_mode":       m.LastPublishMode,
		"last_processing_time_ms": m.LastProcessingTime.Milliseconds(),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
	if !m.LastRunTime.IsZero() {
		stats["last_run_time"] = m.LastRunTime.Format(time.RFC3339)
	}
	if !m.LastErrorTime.IsZero() {
		stats["last_error_time"] = m.LastErrorTime.Format(time.RFC3339)
	}
	return stats
}
