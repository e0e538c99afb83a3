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
	defaultScanLimit = 20
	maxScanLimit     = 200
)

type SecurityScanInput struct {
	ScanType     string     `json:"scanType" validate:"required,oneof=malware vulnerability full"`
	Status       string     `json:"status" validate:"omitempty,oneof=running completed failed"`
	ThreatsFound int        `json:"threatsFound" validate:"gte=0"`
	FilesScanned int        `json:"filesScanned" validate:"gte=0"`
	Summary      string     `json:"summary" validate:"max=2000"`
	StartedAt    *time.Time `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

type SecurityScanService struct {
	store         store.Store
	clock         platform.Clock
	log           zerolog.Logger
	notifications *NotificationService
}

func NewSecurityScanService(d Deps, notifications *NotificationService) *SecurityScanService {
	return &SecurityScanService{
		store:         d.Store,
		clock:         d.Clock,
		log:           d.Logger.With().Str("component", "security_scans").Logger(),
		notifications: notifications,
	}
}

func (s *SecurityScanService) Latest(ctx context.Context) (*model.SecurityScan, error) {
	sc, err := s.store.LatestSecurityScan(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFound("no security scan recorded yet")
		}
		return nil, storeErr(err, "security scan")
	}
	return sc, nil
}

func (s *SecurityScanService) List(ctx context.Context, limit int) ([]model.SecurityScan, error) {
	switch {
	case limit <= 0:
		limit = defaultScanLimit
	case limit > maxScanLimit:
		limit = maxScanLimit
	}
	scans, err := s.store.ListSecurityScans(ctx, limit)
	if err != nil {
		return nil, storeErr(err, "security scan")
	}
	return scans, nil
}

// Record stores a scan result and broadcasts a summary of it.
func (s *SecurityScanService) Record(ctx context.Context, actor Actor, in SecurityScanInput) (*model.SecurityScan, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	sc := &model.SecurityScan{
		ScanType:     in.ScanType,
		Status:       defaultString(in.Status, model.StatusCompleted),
		ThreatsFound: in.ThreatsFound,
		FilesScanned: in.FilesScanned,
		Summary:      in.Summary,
		StartedAt:    now,
		CompletedAt:  in.CompletedAt,
		CreatedAt:    now,
	}
	if in.StartedAt != nil {
		sc.StartedAt = in.StartedAt.UTC()
	}
	if sc.Status == model.StatusCompleted && sc.CompletedAt == nil {
		sc.CompletedAt = &now
	}
	if sc.CompletedAt != nil && sc.CompletedAt.Before(sc.StartedAt) {
		return nil, InvalidInput("completedAt must not be before startedAt")
	}
	if sc.Summary == "" {
		sc.Summary = fmt.Sprintf("%s scan checked %d files and found %d threat(s)", sc.ScanType, sc.FilesScanned, sc.ThreatsFound)
	}
	if err := s.store.CreateSecurityScan(ctx, sc); err != nil {
		return nil, storeErr(err, "security scan")
	}

	n := &model.Notification{Title: "Security scan finished", Message: sc.Summary, Type: model.NotificationSuccess}
	if sc.ThreatsFound > 0 {
		n.Type, n.Priority = model.NotificationWarning, model.PriorityHigh
	}
	if sc.Status == model.StatusFailed {
		n.Title, n.Type = "Security scan failed", model.NotificationError
	}
	if err := s.notifications.Notify(ctx, n); err != nil {
		s.log.Error().Err(err).Int64("scan_id", sc.ID).Msg("failed to announce scan")
	}
	return sc, nil
}
