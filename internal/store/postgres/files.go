package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/store"
)

const fileColumns = `id, user_id, name, path, type, size, mime_type, modified_at`

func scanFileEntry(row rowScanner) (model.FileEntry, error) {
	var f model.FileEntry
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Path, &f.Type, &f.Size, &f.MimeType, &f.ModifiedAt)
	return f, err
}

func (s *Store) CreateFileEntry(ctx context.Context, f *model.FileEntry) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO file_entries (user_id, name, path, type, size, mime_type, modified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		f.UserID, f.Name, f.Path, f.Type, f.Size, f.MimeType, f.ModifiedAt,
	).Scan(&f.ID)
	return wrap("insert file entry", err)
}

func (s *Store) GetFileEntry(ctx context.Context, id int64) (*model.FileEntry, error) {
	f, err := scanFileEntry(s.db.QueryRow(ctx, `SELECT `+fileColumns+` FROM file_entries WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get file entry", err)
	}
	return &f, nil
}

func (s *Store) listFiles(ctx context.Context, op, where string, args ...any) ([]model.FileEntry, error) {
	rows, err := s.queryAll(ctx, op,
		`SELECT `+fileColumns+` FROM file_entries WHERE `+where+` ORDER BY id`, args)
	if err != nil {
		return nil, err
	}
	files, err := collect(rows, scanFileEntry)
	if err != nil {
		return nil, fmt.Errorf("scan file entries: %w", err)
	}
	return files, nil
}

func (s *Store) ListFileEntries(ctx context.Context, f store.Filter) ([]model.FileEntry, error) {
	return s.listFiles(ctx, "list file entries", `($1::bigint IS NULL OR user_id = $1)`, f.UserID)
}

func (s *Store) ListFileEntriesAt(ctx context.Context, userID int64, dir string) ([]model.FileEntry, error) {
	return s.listFiles(ctx, "list file entries at path", `user_id = $1 AND path = $2`, userID, dir)
}

func (s *Store) UpdateFileEntry(ctx context.Context, f *model.FileEntry) error {
	return s.execOne(ctx, "update file entry",
		`UPDATE file_entries SET name = $2, path = $3, type = $4, size = $5, mime_type = $6, modified_at = $7
		 WHERE id = $1`,
		f.ID, f.Name, f.Path, f.Type, f.Size, f.MimeType, f.ModifiedAt)
}

func (s *Store) DeleteFileEntry(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete file entry", `DELETE FROM file_entries WHERE id = $1`, id)
}

func (s *Store) DeleteFileEntriesUnder(ctx context.Context, userID int64, dir string) (int, error) {
	prefix := escapeLike(strings.TrimSuffix(dir, "/")+"/") + "%"
	tag, err := s.db.Exec(ctx,
		`DELETE FROM file_entries WHERE user_id = $1 AND (path = $2 OR path LIKE $3 ESCAPE '\')`,
		userID, dir, prefix)
	if err != nil {
		return 0, wrap("delete file entries under path", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) CreateFileVersion(ctx context.Context, v *model.FileVersion) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO file_versions (file_id, version, size, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		v.FileID, v.Version, v.Size, v.CreatedAt,
	).Scan(&v.ID)
	return wrap("insert file version", err)
}

func (s *Store) ListFileVersions(ctx context.Context, fileID int64) ([]model.FileVersion, error) {
	rows, err := s.queryAll(ctx, "list file versions",
		`SELECT id, file_id, version, size, created_at FROM file_versions
		 WHERE file_id = $1 ORDER BY id DESC`, []any{fileID})
	if err != nil {
		return nil, err
	}
	versions, err := collect(rows, func(row rowScanner) (model.FileVersion, error) {
		var v model.FileVersion
		err := row.Scan(&v.ID, &v.FileID, &v.Version, &v.Size, &v.CreatedAt)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan file versions: %w", err)
	}
	return versions, nil
}
