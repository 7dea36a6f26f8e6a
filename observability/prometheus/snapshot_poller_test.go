package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-parseq/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolStub struct {
	stats core.PoolStats
}

func (s poolStub) Stats() core.PoolStats { return s.stats }

func TestSnapshotPoller_CollectsPoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller("parseq", reg, 10*time.Millisecond)
	require.NoError(t, err)

	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{Active: 2, Delayed: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(poller.poolActive.WithLabelValues("pool-a")) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(poller.poolDelayed.WithLabelValues("pool-a")))
}

// TestSnapshotPoller_GoroutinePoolArmedTimeLimit verifies a real pool is observed
// Given: A race with a one-minute time limit running on a dedicated goroutine pool
// When: The poller samples the pool
// Then: The armed time limit shows up as a delayed task until the race is cancelled
func TestSnapshotPoller_GoroutinePoolArmedTimeLimit(t *testing.T) {
	// Arrange
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller("parseq", reg, 5*time.Millisecond)
	require.NoError(t, err)
	pool := core.NewGoroutineThreadPool("races", context.Background())
	poller.AddPool(pool.ID(), pool)

	never := func(core.Receiver, any) core.Cancellor { return nil }
	r, err := core.Race([]core.Requestor{never}, core.RaceSpec{
		TimeLimit: time.Minute,
		Config:    &core.Config{ThreadPool: pool},
	})
	require.NoError(t, err)

	// Act
	cancelRace := r(func(core.Result) {}, nil)
	poller.Start(context.Background())
	defer poller.Stop()

	// Assert
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(poller.poolDelayed.WithLabelValues("races")) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancelRace(nil)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(poller.poolDelayed.WithLabelValues("races")) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller("", reg, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()

	var nilPoller *SnapshotPoller
	assert.NotPanics(t, func() {
		nilPoller.Start(ctx)
		nilPoller.AddPool("x", nil)
		nilPoller.Stop()
	})
}
