package postgres

import (
	"context"
	"fmt"

	"github.com/edvin/hostpanel/internal/model"
)

const userColumns = `id, username, email, password, role, package_id, status, disk_usage,
	two_factor_secret, two_factor_enabled, created_at`

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.PackageID,
		&u.Status, &u.DiskUsage, &u.TwoFactorSecret, &u.TwoFactorEnabled, &u.CreatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password, role, package_id, status, disk_usage,
			two_factor_secret, two_factor_enabled, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.PackageID, u.Status, u.DiskUsage,
		u.TwoFactorSecret, u.TwoFactorEnabled, u.CreatedAt,
	).Scan(&u.ID)
	return wrap("insert user", err)
}

func (s *Store) getUserBy(ctx context.Context, op, column string, arg any) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, arg))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.getUserBy(ctx, "get user", "id", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUserBy(ctx, "get user by email", "email", email)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUserBy(ctx, "get user by username", "username", username)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.queryAll(ctx, "list users", `SELECT `+userColumns+` FROM users ORDER BY id`, nil)
	if err != nil {
		return nil, err
	}
	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	return s.execOne(ctx, "update user",
		`UPDATE users SET username = $2, email = $3, password = $4, role = $5, package_id = $6,
			status = $7, disk_usage = $8, two_factor_secret = $9, two_factor_enabled = $10
		 WHERE id = $1`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.PackageID,
		u.Status, u.DiskUsage, u.TwoFactorSecret, u.TwoFactorEnabled)
}

// DeleteUser relies on ON DELETE CASCADE for owned rows.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, wrap("count users", err)
	}
	return n, nil
}

func (s *Store) CountUsersByPackage(ctx context.Context, packageID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE package_id = $1`, packageID).Scan(&n); err != nil {
		return 0, wrap("count users by package", err)
	}
	return n, nil
}
