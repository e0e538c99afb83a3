package postgres

import (
	"context"
	"fmt"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/store"
)

const notificationColumns = `id, user_id, title, message, type, priority, is_read, created_at`

func scanNotification(row rowScanner) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Priority, &n.IsRead, &n.CreatedAt)
	return n, err
}

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO notifications (user_id, title, message, type, priority, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		n.UserID, n.Title, n.Message, n.Type, n.Priority, n.IsRead, n.CreatedAt,
	).Scan(&n.ID)
	return wrap("insert notification", err)
}

func (s *Store) GetNotification(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := scanNotification(s.db.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get notification", err)
	}
	return &n, nil
}

// ListNotifications includes broadcasts (user_id IS NULL) for every user.
func (s *Store) ListNotifications(ctx context.Context, f store.Filter) ([]model.Notification, error) {
	rows, err := s.queryAll(ctx, "list notifications",
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE ($1::bigint IS NULL OR user_id = $1 OR user_id IS NULL)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, []any{f.UserID, limitArg(f.Limit)})
	if err != nil {
		return nil, err
	}
	ns, err := collect(rows, scanNotification)
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	return ns, nil
}

func (s *Store) UpdateNotification(ctx context.Context, n *model.Notification) error {
	return s.execOne(ctx, "update notification",
		`UPDATE notifications SET title = $2, message = $3, type = $4, priority = $5, is_read = $6
		 WHERE id = $1`,
		n.ID, n.Title, n.Message, n.Type, n.Priority, n.IsRead)
}

func (s *Store) DeleteNotification(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete notification", `DELETE FROM notifications WHERE id = $1`, id)
}

func (s *Store) MarkNotificationsRead(ctx context.Context, userID int64) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, wrap("mark notifications read", err)
	}
	return int(tag.RowsAffected()), nil
}
