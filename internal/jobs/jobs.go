// Package jobs runs the periodic telemetry generators. Nothing is
// measured: samples and scan results are synthesized and written through
// the same services the HTTP handlers use.
package jobs

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/hostpanel/internal/core"
	"github.com/edvin/hostpanel/internal/metrics"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
)

const (
	JobStats = "server_stats"
	JobScan  = "security_scan"
)

// StatsRecorder is satisfied by *core.ServerStatsService.
type StatsRecorder interface {
	Record(ctx context.Context, actor core.Actor, in core.ServerStatsInput) (*model.ServerStats, error)
}

// ScanRecorder is satisfied by *core.SecurityScanService.
type ScanRecorder interface {
	Record(ctx context.Context, actor core.Actor, in core.SecurityScanInput) (*model.SecurityScan, error)
}

type Config struct {
	StatsInterval time.Duration
	ScanInterval  time.Duration
}

// Runner owns the two generators. Each runs on its own ticker; a slow tick
// delays the next one rather than overlapping it.
type Runner struct {
	cfg   Config
	stats StatsRecorder
	scans ScanRecorder
	clock platform.Clock
	log   zerolog.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	started time.Time
}

// New returns a runner. src seeds the generators; nil selects a random
// seed.
func New(cfg Config, stats StatsRecorder, scans ScanRecorder, clock platform.Clock, logger zerolog.Logger, src rand.Source) *Runner {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if clock == nil {
		clock = platform.SystemClock{}
	}
	return &Runner{
		cfg:     cfg,
		stats:   stats,
		scans:   scans,
		clock:   clock,
		log:     logger.With().Str("component", "jobs").Logger(),
		rng:     rand.New(src),
		started: clock.Now(),
	}
}

// Run blocks until ctx is cancelled. A stats sample is taken immediately so
// the dashboard has data right after startup; scans wait for their first
// tick.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.StatsInterval <= 0 || r.cfg.ScanInterval <= 0 {
		return errors.New("job intervals must be positive")
	}
	r.log.Info().
		Dur("stats_interval", r.cfg.StatsInterval).
		Dur("scan_interval", r.cfg.ScanInterval).
		Msg("background jobs started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.run(ctx, JobStats, r.CollectStats)
		return every(ctx, r.cfg.StatsInterval, func() { r.run(ctx, JobStats, r.CollectStats) })
	})
	g.Go(func() error {
		return every(ctx, r.cfg.ScanInterval, func() { r.run(ctx, JobScan, r.RunScan) })
	})
	err := g.Wait()
	r.log.Info().Msg("background jobs stopped")
	return err
}

func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}

func (r *Runner) run(ctx context.Context, name string, fn func(context.Context) error) {
	start := time.Now()
	err := fn(ctx)
	metrics.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.JobRuns.WithLabelValues(name, "error").Inc()
		if ctx.Err() == nil {
			r.log.Error().Err(err).Str("job", name).Msg("job failed")
		}
		return
	}
	metrics.JobRuns.WithLabelValues(name, "ok").Inc()
}

// CollectStats records one synthesized server stats sample.
func (r *Runner) CollectStats(ctx context.Context) error {
	r.mu.Lock()
	in := core.ServerStatsInput{
		CPUUsage:    5 + r.rng.IntN(91),
		MemoryUsage: 20 + r.rng.IntN(76),
		DiskUsage:   30 + r.rng.IntN(61),
		ActiveUsers: r.rng.IntN(200),
		Uptime:      int64(r.clock.Now().Sub(r.started).Seconds()),
	}
	r.mu.Unlock()

	st, err := r.stats.Record(ctx, core.System, in)
	if err != nil {
		return err
	}
	r.log.Debug().
		Int("cpu", st.CPUUsage).
		Int("memory", st.MemoryUsage).
		Int("disk", st.DiskUsage).
		Msg("server stats recorded")
	return nil
}

var scanTypes = []string{model.ScanTypeMalware, model.ScanTypeVulnerability, model.ScanTypeFull}

// RunScan records one synthesized security scan. Most scans are clean; one
// in ten reports a handful of threats.
func (r *Runner) RunScan(ctx context.Context) error {
	now := r.clock.Now()

	r.mu.Lock()
	scanType := scanTypes[r.rng.IntN(len(scanTypes))]
	files := 1000 + r.rng.IntN(49000)
	threats := 0
	if r.rng.IntN(10) == 0 {
		threats = 1 + r.rng.IntN(3)
	}
	elapsed := time.Duration(5+r.rng.IntN(115)) * time.Second
	r.mu.Unlock()

	startedAt := now.Add(-elapsed)
	sc, err := r.scans.Record(ctx, core.System, core.SecurityScanInput{
		ScanType:     scanType,
		Status:       model.StatusCompleted,
		ThreatsFound: threats,
		FilesScanned: files,
		StartedAt:    &startedAt,
		CompletedAt:  &now,
	})
	if err != nil {
		return err
	}
	metrics.ScanThreats.Set(float64(sc.ThreatsFound))
	r.log.Info().
		Str("scan_type", sc.ScanType).
		Int("threats", sc.ThreatsFound).
		Int("files", sc.FilesScanned).
		Msg("security scan recorded")
	return nil
}
