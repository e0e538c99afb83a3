package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const (
	defaultHistoryLimit = 24
	maxHistoryLimit     = 500
)

type ServerStatsInput struct {
	Timestamp   *time.Time `json:"timestamp"`
	CPUUsage    int        `json:"cpuUsage" validate:"gte=0,lte=100"`
	MemoryUsage int        `json:"memoryUsage" validate:"gte=0,lte=100"`
	DiskUsage   int        `json:"diskUsage" validate:"gte=0,lte=100"`
	ActiveUsers int        `json:"activeUsers" validate:"gte=0"`
	Uptime      int64      `json:"uptime" validate:"gte=0"`
}

type ServerStatsService struct {
	store         store.Store
	clock         platform.Clock
	log           zerolog.Logger
	notifications *NotificationService
	threshold     int
}

func NewServerStatsService(d Deps, notifications *NotificationService) *ServerStatsService {
	return &ServerStatsService{
		store:         d.Store,
		clock:         d.Clock,
		log:           d.Logger.With().Str("component", "server_stats").Logger(),
		notifications: notifications,
		threshold:     d.StatsAlertThreshold,
	}
}

func (s *ServerStatsService) Latest(ctx context.Context) (*model.ServerStats, error) {
	st, err := s.store.LatestServerStats(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFound("no server stats recorded yet")
		}
		return nil, storeErr(err, "server stats")
	}
	return st, nil
}

// History returns at most limit samples, newest first. A non-positive
// limit selects the default.
func (s *ServerStatsService) History(ctx context.Context, limit int) ([]model.ServerStats, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	hist, err := s.store.ServerStatsHistory(ctx, limit)
	if err != nil {
		return nil, storeErr(err, "server stats")
	}
	return hist, nil
}

// Record appends a sample. When the highest usage figure crosses the alert
// threshold from below, a warning is broadcast. Backfilled samples, older
// than the current latest, never alert.
func (s *ServerStatsService) Record(ctx context.Context, actor Actor, in ServerStatsInput) (*model.ServerStats, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	prev, err := s.store.LatestServerStats(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "server stats")
	}

	st := &model.ServerStats{
		Timestamp:   s.clock.Now(),
		CPUUsage:    in.CPUUsage,
		MemoryUsage: in.MemoryUsage,
		DiskUsage:   in.DiskUsage,
		ActiveUsers: in.ActiveUsers,
		Uptime:      in.Uptime,
	}
	if in.Timestamp != nil {
		st.Timestamp = in.Timestamp.UTC()
	}
	if err := s.store.CreateServerStats(ctx, st); err != nil {
		return nil, storeErr(err, "server stats")
	}

	if prev != nil && st.Timestamp.Before(prev.Timestamp) {
		return st, nil
	}
	if s.threshold > 0 && peakUsage(st) >= s.threshold && (prev == nil || peakUsage(prev) < s.threshold) {
		n := &model.Notification{
			Title: "High server resource usage",
			Message: fmt.Sprintf("CPU %d%%, memory %d%%, disk %d%% (threshold %d%%)",
				st.CPUUsage, st.MemoryUsage, st.DiskUsage, s.threshold),
			Type:     model.NotificationWarning,
			Priority: model.PriorityHigh,
		}
		if err := s.notifications.Notify(ctx, n); err != nil {
			s.log.Error().Err(err).Msg("failed to raise usage alert")
		}
	}
	return st, nil
}

func peakUsage(st *model.ServerStats) int {
	return max(st.CPUUsage, st.MemoryUsage, st.DiskUsage)
}
