package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

type AuditLogService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewAuditLogService(d Deps) *AuditLogService {
	return &AuditLogService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "audit").Logger()}
}

// Record stores one audit entry. CreatedAt is filled in when unset.
func (s *AuditLogService) Record(ctx context.Context, entry *model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	if err := s.store.CreateAuditLog(ctx, entry); err != nil {
		return storeErr(err, "audit log")
	}
	return nil
}

func (s *AuditLogService) List(ctx context.Context, actor Actor, limit int) ([]model.AuditLog, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	logs, err := s.store.ListAuditLogs(ctx, limit)
	if err != nil {
		return nil, storeErr(err, "audit log")
	}
	return logs, nil
}
