package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCronSchedulerValidates(t *testing.T) {
	t.Parallel()

	_, err := NewCronScheduler("not a cron", nil)
	require.Error(t, err)

	tokyo := time.FixedZone("JST", 9*3600)
	s, err := NewCronScheduler("0 6 * * *", tokyo)
	require.NoError(t, err)

	// 00:00 UTC is already 09:00 in Tokyo, so the next 06:00 is the following day.
	next := s.Next(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, next.Equal(time.Date(2025, 1, 3, 6, 0, 0, 0, tokyo)), "got %s", next)
}

func TestCronSchedulerRunsAndStops(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", time.UTC)
	require.NoError(t, err)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx, func(time.Time) { runs.Add(1) }))
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	stopped := runs.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestCronSchedulerStopWaitsForRunningJob(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1s", time.UTC)
	require.NoError(t, err)

	var started, finished atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx, func(time.Time) {
		started.Store(true)
		time.Sleep(500 * time.Millisecond)
		finished.Store(true)
	}))
	require.Eventually(t, started.Load, 3*time.Second, 10*time.Millisecond)

	// Cancelling the start context alone must not detach the running job.
	cancel()
	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, finished.Load())
}
