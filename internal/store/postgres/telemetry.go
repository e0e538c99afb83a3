package postgres

import (
	"context"
	"fmt"

	"github.com/edvin/hostpanel/internal/model"
)

// ---------- Server stats ----------

const statsColumns = `id, timestamp, cpu_usage, memory_usage, disk_usage, active_users, uptime`

func scanServerStats(row rowScanner) (model.ServerStats, error) {
	var st model.ServerStats
	err := row.Scan(&st.ID, &st.Timestamp, &st.CPUUsage, &st.MemoryUsage, &st.DiskUsage, &st.ActiveUsers, &st.Uptime)
	return st, err
}

func (s *Store) CreateServerStats(ctx context.Context, st *model.ServerStats) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO server_stats (timestamp, cpu_usage, memory_usage, disk_usage, active_users, uptime)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		st.Timestamp, st.CPUUsage, st.MemoryUsage, st.DiskUsage, st.ActiveUsers, st.Uptime,
	).Scan(&st.ID)
	return wrap("insert server stats", err)
}

func (s *Store) LatestServerStats(ctx context.Context) (*model.ServerStats, error) {
	st, err := scanServerStats(s.db.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM server_stats ORDER BY timestamp DESC, id DESC LIMIT 1`))
	if err != nil {
		return nil, wrap("latest server stats", err)
	}
	return &st, nil
}

func (s *Store) ServerStatsHistory(ctx context.Context, limit int) ([]model.ServerStats, error) {
	if limit <= 0 {
		return []model.ServerStats{}, nil
	}
	rows, err := s.queryAll(ctx, "server stats history",
		`SELECT `+statsColumns+` FROM server_stats ORDER BY timestamp DESC, id DESC LIMIT $1`, []any{limit})
	if err != nil {
		return nil, err
	}
	history, err := collect(rows, scanServerStats)
	if err != nil {
		return nil, fmt.Errorf("scan server stats: %w", err)
	}
	return history, nil
}

// ---------- Security scans ----------

const scanColumns = `id, scan_type, status, threats_found, files_scanned, summary, started_at, completed_at, created_at`

func scanSecurityScan(row rowScanner) (model.SecurityScan, error) {
	var sc model.SecurityScan
	err := row.Scan(&sc.ID, &sc.ScanType, &sc.Status, &sc.ThreatsFound, &sc.FilesScanned,
		&sc.Summary, &sc.StartedAt, &sc.CompletedAt, &sc.CreatedAt)
	return sc, err
}

func (s *Store) CreateSecurityScan(ctx context.Context, sc *model.SecurityScan) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO security_scans (scan_type, status, threats_found, files_scanned, summary,
			started_at, completed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		sc.ScanType, sc.Status, sc.ThreatsFound, sc.FilesScanned, sc.Summary,
		sc.StartedAt, sc.CompletedAt, sc.CreatedAt,
	).Scan(&sc.ID)
	return wrap("insert security scan", err)
}

func (s *Store) LatestSecurityScan(ctx context.Context) (*model.SecurityScan, error) {
	sc, err := scanSecurityScan(s.db.QueryRow(ctx,
		`SELECT `+scanColumns+` FROM security_scans ORDER BY created_at DESC, id DESC LIMIT 1`))
	if err != nil {
		return nil, wrap("latest security scan", err)
	}
	return &sc, nil
}

func (s *Store) ListSecurityScans(ctx context.Context, limit int) ([]model.SecurityScan, error) {
	rows, err := s.queryAll(ctx, "list security scans",
		`SELECT `+scanColumns+` FROM security_scans ORDER BY created_at DESC, id DESC LIMIT $1`,
		[]any{limitArg(limit)})
	if err != nil {
		return nil, err
	}
	scans, err := collect(rows, scanSecurityScan)
	if err != nil {
		return nil, fmt.Errorf("scan security scans: %w", err)
	}
	return scans, nil
}

// ---------- Audit logs ----------

func (s *Store) CreateAuditLog(ctx context.Context, l *model.AuditLog) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO audit_logs (user_id, request_id, method, path, resource_type, resource_id, status_code, request_body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		l.UserID, l.RequestID, l.Method, l.Path, l.ResourceType, l.ResourceID, l.StatusCode, nullJSON(l.RequestBody), l.CreatedAt,
	).Scan(&l.ID)
	return wrap("insert audit log", err)
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error) {
	rows, err := s.queryAll(ctx, "list audit logs",
		`SELECT id, user_id, request_id, method, path, resource_type, resource_id, status_code, request_body, created_at
		 FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT $1`, []any{limitArg(limit)})
	if err != nil {
		return nil, err
	}
	logs, err := collect(rows, func(row rowScanner) (model.AuditLog, error) {
		var l model.AuditLog
		var body []byte
		err := row.Scan(&l.ID, &l.UserID, &l.RequestID, &l.Method, &l.Path,
			&l.ResourceType, &l.ResourceID, &l.StatusCode, &body, &l.CreatedAt)
		if len(body) > 0 {
			l.RequestBody = body
		}
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit logs: %w", err)
	}
	return logs, nil
}
