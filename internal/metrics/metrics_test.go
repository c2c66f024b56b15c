package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRunAndError(t *testing.T) {
	m := &Metrics{IsHealthy: true}

	m.RecordRun(RunStats{Stories: 4, Videos: 2, SavedStories: 3, SavedVideos: 1, Skipped: 2, Mode: "dev", Duration: 1500 * time.Millisecond})
	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["total_runs"])
	assert.Equal(t, int64(3), stats["total_stories_saved"])
	assert.Equal(t, int64(1), stats["total_videos_saved"])
	assert.Equal(t, int64(2), stats["duplicates_skipped"])
	assert.Equal(t, "dev", stats["last_publish_mode"])
	assert.Equal(t, int64(1500), stats["last_processing_time_ms"])
	assert.Equal(t, true, stats["is_healthy"])
	assert.NotContains(t, stats, "last_error_time")

	m.SetError("step 5 (update ref) failed", time.Second)
	stats = m.GetStats()
	assert.Equal(t, int64(2), stats["total_runs"])
	assert.Equal(t, int64(1), stats["failed_runs"])
	assert.Equal(t, false, stats["is_healthy"])
	assert.Equal(t, "step 5 (update ref) failed", stats["last_error"])
	assert.Contains(t, stats, "last_error_time")

	m.RecordRun(RunStats{Mode: "dev"})
	assert.Equal(t, true, m.GetStats()["is_healthy"])
}

func TestRecordFeedFetch(t *testing.T) {
	before := testutil.ToFloat64(FeedFailures.WithLabelValues("Test Feed"))
	RecordFeedFetch("Test Feed", 0, errors.New("timeout"))
	assert.Equal(t, before+1, testutil.ToFloat64(FeedFailures.WithLabelValues("Test Feed")))

	items := testutil.ToFloat64(FeedItems.WithLabelValues("Test Feed"))
	RecordFeedFetch("Test Feed", 7, nil)
	assert.Equal(t, items+7, testutil.ToFloat64(FeedItems.WithLabelValues("Test Feed")))
}
