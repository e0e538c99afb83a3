package jobs

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/core"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

func newServices(t *testing.T, clock platform.Clock) (*core.Services, *store.Memory) {
	t.Helper()
	st := store.NewMemory(platform.NewSequence())
	return core.NewServices(core.Deps{
		Store:  st,
		Clock:  clock,
		Logger: zerolog.Nop(),
	}), st
}

func TestCollectStats_WritesBoundedSample(t *testing.T) {
	clock := platform.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	svc, _ := newServices(t, clock)
	r := New(Config{StatsInterval: time.Minute, ScanInterval: time.Hour},
		svc.ServerStats, svc.SecurityScan, clock, zerolog.Nop(), rand.NewPCG(1, 2))

	clock.Advance(90 * time.Second)
	for i := 0; i < 50; i++ {
		require.NoError(t, r.CollectStats(context.Background()))
	}

	hist, err := svc.ServerStats.History(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, hist, 50)
	for _, st := range hist {
		assert.GreaterOrEqual(t, st.CPUUsage, 0)
		assert.LessOrEqual(t, st.CPUUsage, 100)
		assert.LessOrEqual(t, st.MemoryUsage, 100)
		assert.LessOrEqual(t, st.DiskUsage, 100)
		assert.Equal(t, int64(90), st.Uptime)
	}
}

func TestRunScan_RecordsAndNotifies(t *testing.T) {
	clock := platform.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	svc, st := newServices(t, clock)
	r := New(Config{StatsInterval: time.Minute, ScanInterval: time.Hour},
		svc.ServerStats, svc.SecurityScan, clock, zerolog.Nop(), rand.NewPCG(3, 4))

	require.NoError(t, r.RunScan(context.Background()))

	sc, err := svc.SecurityScan.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, sc.Status)
	assert.Contains(t, []string{model.ScanTypeMalware, model.ScanTypeVulnerability, model.ScanTypeFull}, sc.ScanType)
	require.NotNil(t, sc.CompletedAt)
	assert.True(t, sc.StartedAt.Before(*sc.CompletedAt))

	notes, err := st.ListNotifications(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].IsBroadcast())
}

type countingStats struct {
	calls atomic.Int32
	err   error
}

func (c *countingStats) Record(context.Context, core.Actor, core.ServerStatsInput) (*model.ServerStats, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &model.ServerStats{}, nil
}

type countingScans struct {
	calls atomic.Int32
}

func (c *countingScans) Record(_ context.Context, _ core.Actor, in core.SecurityScanInput) (*model.SecurityScan, error) {
	c.calls.Add(1)
	return &model.SecurityScan{ScanType: in.ScanType, ThreatsFound: in.ThreatsFound}, nil
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	stats := &countingStats{}
	scans := &countingScans{}
	r := New(Config{StatsInterval: 5 * time.Millisecond, ScanInterval: 5 * time.Millisecond},
		stats, scans, nil, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return stats.calls.Load() >= 3 && scans.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestRun_FailuresDoNotStopTheRunner(t *testing.T) {
	stats := &countingStats{err: errors.New("store unavailable")}
	r := New(Config{StatsInterval: 5 * time.Millisecond, ScanInterval: time.Hour},
		stats, &countingScans{}, nil, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	assert.Eventually(t, func() bool { return stats.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestRun_RejectsNonPositiveIntervals(t *testing.T) {
	r := New(Config{}, &countingStats{}, &countingScans{}, nil, zerolog.Nop(), nil)
	assert.Error(t, r.Run(context.Background()))
}
