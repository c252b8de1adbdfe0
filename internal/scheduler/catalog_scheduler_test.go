package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshCache(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestCatalogScheduler_WarmsAndRefreshes(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewCatalogScheduler(refresher, "@every 1s")

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.Eventually(t, func() bool { return refresher.calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
}

func TestCatalogScheduler_InvalidSchedule(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewCatalogScheduler(refresher, "not a schedule")

	assert.Error(t, s.Start())
}

func TestCatalogScheduler_RefreshFailureKeepsRunning(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("db down")}
	s := NewCatalogScheduler(refresher, "@every 1h")

	require.NoError(t, s.Start())
	s.Stop()
	assert.Equal(t, int32(1), refresher.calls.Load())
}
