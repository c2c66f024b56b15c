package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterPacesSameHost(t *testing.T) {
	l := NewHostLimiter(20) // one token every 50ms
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://www.pressherald.com/a"))
	require.NoError(t, l.Wait(ctx, "https://www.pressherald.com/b"))
	require.NoError(t, l.Wait(ctx, "https://www.pressherald.com/c"))

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestHostLimiterSeparatesHosts(t *testing.T) {
	l := NewHostLimiter(0.001)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://a.example.com/1"))
	require.NoError(t, l.Wait(ctx, "https://b.example.com/1"))

	stats := l.GetStats()
	assert.Equal(t, 2, stats["hosts"])
	assert.Equal(t, 2, stats["requests"])
}

func TestHostLimiterRespectsContext(t *testing.T) {
	l := NewHostLimiter(0.001)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://a.example.com/1"))
	assert.Error(t, l.Wait(ctx, "https://a.example.com/2"))
}

func TestHostLimiterRejectsMissingHost(t *testing.T) {
	l := NewHostLimiter(1)
	assert.Error(t, l.Wait(context.Background(), "/relative/path"))
}

func TestHostLimiterDisabled(t *testing.T) {
	l := NewHostLimiter(0)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(ctx, "https://a.example.com/x"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	stats := l.GetStats()
	assert.Equal(t, 0.0, stats["per_second"])
	assert.Equal(t, 10, stats["requests"])
}

func TestHostLimiterStatsReportRate(t *testing.T) {
	assert.Equal(t, 2.5, NewHostLimiter(2.5).GetStats()["per_second"])
}
