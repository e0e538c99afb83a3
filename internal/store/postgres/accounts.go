package postgres

import (
	"context"
	"fmt"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/store"
)

// ---------- Backups ----------

const backupColumns = `id, user_id, name, type, status, size, storage_path, status_message, created_at, completed_at`

func scanBackup(row rowScanner) (model.Backup, error) {
	var b model.Backup
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Type, &b.Status, &b.Size, &b.StoragePath,
		&b.StatusMessage, &b.CreatedAt, &b.CompletedAt)
	return b, err
}

func (s *Store) CreateBackup(ctx context.Context, b *model.Backup) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO backups (user_id, name, type, status, size, storage_path, status_message, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		b.UserID, b.Name, b.Type, b.Status, b.Size, b.StoragePath, b.StatusMessage, b.CreatedAt, b.CompletedAt,
	).Scan(&b.ID)
	return wrap("insert backup", err)
}

func (s *Store) GetBackup(ctx context.Context, id int64) (*model.Backup, error) {
	b, err := scanBackup(s.db.QueryRow(ctx, `SELECT `+backupColumns+` FROM backups WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get backup", err)
	}
	return &b, nil
}

func (s *Store) ListBackups(ctx context.Context, f store.Filter) ([]model.Backup, error) {
	rows, err := s.queryAll(ctx, "list backups",
		`SELECT `+backupColumns+` FROM backups
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY created_at DESC, id DESC`, []any{f.UserID})
	if err != nil {
		return nil, err
	}
	backups, err := collect(rows, scanBackup)
	if err != nil {
		return nil, fmt.Errorf("scan backups: %w", err)
	}
	return backups, nil
}

func (s *Store) UpdateBackup(ctx context.Context, b *model.Backup) error {
	return s.execOne(ctx, "update backup",
		`UPDATE backups SET name = $2, type = $3, status = $4, size = $5, storage_path = $6,
			status_message = $7, completed_at = $8
		 WHERE id = $1`,
		b.ID, b.Name, b.Type, b.Status, b.Size, b.StoragePath, b.StatusMessage, b.CompletedAt)
}

func (s *Store) DeleteBackup(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete backup", `DELETE FROM backups WHERE id = $1`, id)
}

// ---------- API keys ----------

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, permissions, is_active, last_used_at, expires_at, created_at`

func scanApiKey(row rowScanner) (model.ApiKey, error) {
	var k model.ApiKey
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Permissions,
		&k.IsActive, &k.LastUsedAt, &k.ExpiresAt, &k.CreatedAt)
	if k.Permissions == nil {
		k.Permissions = []string{}
	}
	return k, err
}

func (s *Store) CreateApiKey(ctx context.Context, k *model.ApiKey) error {
	perms := k.Permissions
	if perms == nil {
		perms = []string{}
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (user_id, name, key_hash, key_prefix, permissions, is_active, last_used_at, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		k.UserID, k.Name, k.KeyHash, k.KeyPrefix, perms, k.IsActive, k.LastUsedAt, k.ExpiresAt, k.CreatedAt,
	).Scan(&k.ID)
	return wrap("insert api key", err)
}

func (s *Store) GetApiKey(ctx context.Context, id int64) (*model.ApiKey, error) {
	k, err := scanApiKey(s.db.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get api key", err)
	}
	return &k, nil
}

func (s *Store) GetApiKeyByHash(ctx context.Context, hash string) (*model.ApiKey, error) {
	k, err := scanApiKey(s.db.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, hash))
	if err != nil {
		return nil, wrap("get api key by hash", err)
	}
	return &k, nil
}

func (s *Store) ListApiKeys(ctx context.Context, f store.Filter) ([]model.ApiKey, error) {
	rows, err := s.queryAll(ctx, "list api keys",
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY created_at DESC, id DESC`, []any{f.UserID})
	if err != nil {
		return nil, err
	}
	keys, err := collect(rows, scanApiKey)
	if err != nil {
		return nil, fmt.Errorf("scan api keys: %w", err)
	}
	return keys, nil
}

func (s *Store) UpdateApiKey(ctx context.Context, k *model.ApiKey) error {
	return s.execOne(ctx, "update api key",
		`UPDATE api_keys SET name = $2, permissions = $3, is_active = $4, last_used_at = $5, expires_at = $6
		 WHERE id = $1`,
		k.ID, k.Name, k.Permissions, k.IsActive, k.LastUsedAt, k.ExpiresAt)
}

func (s *Store) DeleteApiKey(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete api key", `DELETE FROM api_keys WHERE id = $1`, id)
}

// ---------- Dashboard widgets ----------

const widgetColumns = `id, user_id, widget_type, title, position, size, settings, is_visible, created_at`

func scanWidget(row rowScanner) (model.DashboardWidget, error) {
	var w model.DashboardWidget
	var settings []byte
	err := row.Scan(&w.ID, &w.UserID, &w.WidgetType, &w.Title, &w.Position, &w.Size,
		&settings, &w.IsVisible, &w.CreatedAt)
	if len(settings) > 0 {
		w.Settings = settings
	}
	return w, err
}

func (s *Store) CreateWidget(ctx context.Context, w *model.DashboardWidget) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO dashboard_widgets (user_id, widget_type, title, position, size, settings, is_visible, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		w.UserID, w.WidgetType, w.Title, w.Position, w.Size, nullJSON(w.Settings), w.IsVisible, w.CreatedAt,
	).Scan(&w.ID)
	return wrap("insert widget", err)
}

func (s *Store) GetWidget(ctx context.Context, id int64) (*model.DashboardWidget, error) {
	w, err := scanWidget(s.db.QueryRow(ctx, `SELECT `+widgetColumns+` FROM dashboard_widgets WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get widget", err)
	}
	return &w, nil
}

func (s *Store) ListWidgets(ctx context.Context, f store.Filter) ([]model.DashboardWidget, error) {
	rows, err := s.queryAll(ctx, "list widgets",
		`SELECT `+widgetColumns+` FROM dashboard_widgets
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY position, id`, []any{f.UserID})
	if err != nil {
		return nil, err
	}
	widgets, err := collect(rows, scanWidget)
	if err != nil {
		return nil, fmt.Errorf("scan widgets: %w", err)
	}
	return widgets, nil
}

func (s *Store) UpdateWidget(ctx context.Context, w *model.DashboardWidget) error {
	return s.execOne(ctx, "update widget",
		`UPDATE dashboard_widgets SET widget_type = $2, title = $3, position = $4, size = $5,
			settings = $6, is_visible = $7
		 WHERE id = $1`,
		w.ID, w.WidgetType, w.Title, w.Position, w.Size, nullJSON(w.Settings), w.IsVisible)
}

func (s *Store) DeleteWidget(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete widget", `DELETE FROM dashboard_widgets WHERE id = $1`, id)
}

// ---------- Webmail settings ----------

func (s *Store) GetWebmailSettings(ctx context.Context, userID int64) (*model.WebmailSettings, error) {
	var ws model.WebmailSettings
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, display_name, signature, theme, messages_per_page, auto_refresh, updated_at
		 FROM webmail_settings WHERE user_id = $1`, userID,
	).Scan(&ws.ID, &ws.UserID, &ws.DisplayName, &ws.Signature, &ws.Theme, &ws.MessagesPerPage,
		&ws.AutoRefresh, &ws.UpdatedAt)
	if err != nil {
		return nil, wrap("get webmail settings", err)
	}
	return &ws, nil
}

func (s *Store) UpsertWebmailSettings(ctx context.Context, ws *model.WebmailSettings) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO webmail_settings (user_id, display_name, signature, theme, messages_per_page, auto_refresh, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			signature = EXCLUDED.signature,
			theme = EXCLUDED.theme,
			messages_per_page = EXCLUDED.messages_per_page,
			auto_refresh = EXCLUDED.auto_refresh,
			updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		ws.UserID, ws.DisplayName, ws.Signature, ws.Theme, ws.MessagesPerPage, ws.AutoRefresh, ws.UpdatedAt,
	).Scan(&ws.ID)
	return wrap("upsert webmail settings", err)
}

// ---------- Code projects ----------

const codeProjectColumns = `id, user_id, name, language, code, description, is_public, created_at, updated_at`

func scanCodeProject(row rowScanner) (model.CodeProject, error) {
	var p model.CodeProject
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Language, &p.Code, &p.Description,
		&p.IsPublic, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) CreateCodeProject(ctx context.Context, p *model.CodeProject) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO code_projects (user_id, name, language, code, description, is_public, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.UserID, p.Name, p.Language, p.Code, p.Description, p.IsPublic, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	return wrap("insert code project", err)
}

func (s *Store) GetCodeProject(ctx context.Context, id int64) (*model.CodeProject, error) {
	p, err := scanCodeProject(s.db.QueryRow(ctx, `SELECT `+codeProjectColumns+` FROM code_projects WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get code project", err)
	}
	return &p, nil
}

func (s *Store) ListCodeProjects(ctx context.Context, f store.Filter) ([]model.CodeProject, error) {
	rows, err := s.queryAll(ctx, "list code projects",
		`SELECT `+codeProjectColumns+` FROM code_projects
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY id`, []any{f.UserID})
	if err != nil {
		return nil, err
	}
	projects, err := collect(rows, scanCodeProject)
	if err != nil {
		return nil, fmt.Errorf("scan code projects: %w", err)
	}
	return projects, nil
}

func (s *Store) UpdateCodeProject(ctx context.Context, p *model.CodeProject) error {
	return s.execOne(ctx, "update code project",
		`UPDATE code_projects SET name = $2, language = $3, code = $4, description = $5,
			is_public = $6, updated_at = $7
		 WHERE id = $1`,
		p.ID, p.Name, p.Language, p.Code, p.Description, p.IsPublic, p.UpdatedAt)
}

func (s *Store) DeleteCodeProject(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete code project", `DELETE FROM code_projects WHERE id = $1`, id)
}

// ---------- Knowledge base ----------

const articleColumns = `id, title, content, category, tags, author_id, views, created_at, updated_at`

func scanArticle(row rowScanner) (model.KnowledgeBaseArticle, error) {
	var a model.KnowledgeBaseArticle
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &a.Tags, &a.AuthorID,
		&a.Views, &a.CreatedAt, &a.UpdatedAt)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a, err
}

func tagsArg(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (s *Store) CreateArticle(ctx context.Context, a *model.KnowledgeBaseArticle) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO knowledge_base (title, content, category, tags, author_id, views, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		a.Title, a.Content, a.Category, tagsArg(a.Tags), a.AuthorID, a.Views, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	return wrap("insert article", err)
}

func (s *Store) GetArticle(ctx context.Context, id int64) (*model.KnowledgeBaseArticle, error) {
	a, err := scanArticle(s.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM knowledge_base WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get article", err)
	}
	return &a, nil
}

func (s *Store) ListArticles(ctx context.Context, f store.Filter) ([]model.KnowledgeBaseArticle, error) {
	rows, err := s.queryAll(ctx, "list articles",
		`SELECT `+articleColumns+` FROM knowledge_base
		 WHERE ($1 = '' OR category = $1)
		 ORDER BY id`, []any{f.Category})
	if err != nil {
		return nil, err
	}
	articles, err := collect(rows, scanArticle)
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}
	return articles, nil
}

func (s *Store) UpdateArticle(ctx context.Context, a *model.KnowledgeBaseArticle) error {
	return s.execOne(ctx, "update article",
		`UPDATE knowledge_base SET title = $2, content = $3, category = $4, tags = $5, views = $6, updated_at = $7
		 WHERE id = $1`,
		a.ID, a.Title, a.Content, a.Category, tagsArg(a.Tags), a.Views, a.UpdatedAt)
}

func (s *Store) DeleteArticle(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete article", `DELETE FROM knowledge_base WHERE id = $1`, id)
}
