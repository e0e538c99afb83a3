package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/model"
)

func TestBackups_CreateWritesArchive(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)
	d := f.domain(t, actor, "example.com")
	_, err := f.svc.DnsRecord.Create(f.ctx, actor, DnsRecordInput{DomainID: d.ID, Name: "www", Type: "A", Value: "1.2.3.4"})
	require.NoError(t, err)
	_, err = f.svc.EmailAccount.Create(f.ctx, actor, EmailAccountInput{Email: "info@example.com", Password: "mailbox-pass"})
	require.NoError(t, err)

	b, err := f.svc.Backup.Create(f.ctx, actor, BackupInput{Name: "nightly", Type: model.BackupTypeFull})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, b.Status)
	assert.NotEmpty(t, b.StoragePath)
	assert.Positive(t, b.Size)
	require.NotNil(t, b.CompletedAt)

	got, data, err := f.svc.Backup.Download(f.ctx, actor, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.Size, int64(len(data)))
	assert.NotContains(t, string(data), "argon2id")

	var doc Archive
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "alice", doc.User.Username)
	assert.Len(t, doc.Domains, 1)
	assert.Len(t, doc.DnsRecords, 1)
	assert.Len(t, doc.EmailAccounts, 1)

	require.NoError(t, f.svc.Backup.Delete(f.ctx, actor, b.ID))
	assert.Empty(t, f.archiver.objects)
}

func TestBackups_TypeSelectsContents(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)
	f.domain(t, actor, "example.com")
	_, err := f.svc.Database.Create(f.ctx, actor, DatabaseInput{Name: "shop"})
	require.NoError(t, err)

	b, err := f.svc.Backup.Create(f.ctx, actor, BackupInput{Name: "db", Type: model.BackupTypeDatabases})
	require.NoError(t, err)
	_, data, err := f.svc.Backup.Download(f.ctx, actor, b.ID)
	require.NoError(t, err)

	var doc Archive
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Databases, 1)
	assert.Empty(t, doc.Domains)
}

func TestBackups_FailedArchive(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)
	f.archiver.putErr = errors.New("bucket unavailable")

	b, err := f.svc.Backup.Create(f.ctx, actor, BackupInput{Name: "nightly", Type: model.BackupTypeFull})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, b.Status)
	require.NotNil(t, b.StatusMessage)
	assert.Contains(t, *b.StatusMessage, "bucket unavailable")

	_, _, err = f.svc.Backup.Download(f.ctx, actor, b.ID)
	requireKind(t, err, KindConflict)
}

func TestBackups_ListNewestFirst(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)
	first, err := f.svc.Backup.Create(f.ctx, actor, BackupInput{Name: "one", Type: model.BackupTypeFiles})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second, err := f.svc.Backup.Create(f.ctx, actor, BackupInput{Name: "two", Type: model.BackupTypeEmail})
	require.NoError(t, err)

	list, err := f.svc.Backup.List(f.ctx, actor, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestAPIKeys_IssueAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	alice, actor := f.user(t, "alice", model.RoleUser)

	created, err := f.svc.APIKey.Create(f.ctx, actor, APIKeyInput{Name: "ci"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Key, APIKeyPrefix))
	assert.True(t, strings.HasPrefix(created.Key, created.KeyPrefix))
	assert.NotContains(t, created.KeyHash, created.Key)
	assert.ElementsMatch(t, []string{PermissionRead, PermissionWrite}, created.Permissions)

	f.clock.Advance(time.Minute)
	u, k, err := f.svc.APIKey.Authenticate(f.ctx, created.Key)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)
	require.NotNil(t, k.LastUsedAt)
	assert.Equal(t, testEpoch.Add(time.Minute), *k.LastUsedAt)

	_, _, err = f.svc.APIKey.Authenticate(f.ctx, "hpk_unknown")
	requireKind(t, err, KindUnauthorized)
	_, _, err = f.svc.APIKey.Authenticate(f.ctx, "not-a-key")
	requireKind(t, err, KindUnauthorized)

	_, err = f.svc.APIKey.Update(f.ctx, actor, created.ID, UpdateAPIKeyInput{IsActive: ptr(false)})
	require.NoError(t, err)
	_, _, err = f.svc.APIKey.Authenticate(f.ctx, created.Key)
	requireKind(t, err, KindUnauthorized)
}

func TestAPIKeys_Expiry(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)

	_, err := f.svc.APIKey.Create(f.ctx, actor, APIKeyInput{Name: "old", ExpiresAt: ptr(testEpoch.Add(-time.Hour))})
	requireKind(t, err, KindInvalidInput)

	created, err := f.svc.APIKey.Create(f.ctx, actor, APIKeyInput{Name: "short", ExpiresAt: ptr(testEpoch.Add(time.Hour))})
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	_, _, err = f.svc.APIKey.Authenticate(f.ctx, created.Key)
	requireKind(t, err, KindUnauthorized)
}

func TestKeyAllows(t *testing.T) {
	readOnly := &model.ApiKey{Permissions: []string{PermissionRead}}
	writer := &model.ApiKey{Permissions: []string{PermissionWrite}}

	assert.True(t, KeyAllows(readOnly, http.MethodGet))
	assert.False(t, KeyAllows(readOnly, http.MethodPost))
	assert.True(t, KeyAllows(writer, http.MethodGet))
	assert.True(t, KeyAllows(writer, http.MethodDelete))
}

func TestWidgets_OrderAndSettings(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)

	_, err := f.svc.Widget.Create(f.ctx, actor, WidgetInput{WidgetType: "stats", Title: "Stats", Position: 2})
	require.NoError(t, err)
	w, err := f.svc.Widget.Create(f.ctx, actor, WidgetInput{WidgetType: "quota", Title: "Quota", Position: 1, Settings: json.RawMessage(`{"compact":true}`), IsVisible: ptr(false)})
	require.NoError(t, err)
	assert.False(t, w.IsVisible)
	assert.Equal(t, "medium", w.Size)

	list, err := f.svc.Widget.List(f.ctx, actor, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "quota", list[0].WidgetType)

	_, err = f.svc.Widget.Create(f.ctx, actor, WidgetInput{WidgetType: "x", Title: "x", Settings: json.RawMessage(`[1,2]`)})
	requireKind(t, err, KindInvalidInput)
}

func TestWebmail_DefaultsAndUpsert(t *testing.T) {
	f := newFixture(t)
	alice, actor := f.user(t, "alice", model.RoleUser)

	ws, err := f.svc.Webmail.Get(f.ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWebmailSettings(alice.ID), *ws)

	_, err = f.svc.Webmail.Update(f.ctx, actor, WebmailSettingsInput{Theme: ptr("dark"), MessagesPerPage: ptr(50)})
	require.NoError(t, err)
	_, err = f.svc.Webmail.Update(f.ctx, actor, WebmailSettingsInput{Signature: ptr("-- alice")})
	require.NoError(t, err)

	ws, err = f.svc.Webmail.Get(f.ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "dark", ws.Theme)
	assert.Equal(t, 50, ws.MessagesPerPage)
	assert.Equal(t, "-- alice", ws.Signature)

	_, err = f.svc.Webmail.Update(f.ctx, actor, WebmailSettingsInput{MessagesPerPage: ptr(7)})
	requireKind(t, err, KindInvalidInput)
}

func TestCodeProjects_PublicVisibility(t *testing.T) {
	f := newFixture(t)
	_, alice := f.user(t, "alice", model.RoleUser)
	_, bob := f.user(t, "bob", model.RoleUser)

	private, err := f.svc.CodeProject.Create(f.ctx, alice, CodeProjectInput{Name: "mine", Language: "go", Code: "package main"})
	require.NoError(t, err)
	public, err := f.svc.CodeProject.Create(f.ctx, alice, CodeProjectInput{Name: "shared", Language: "python", IsPublic: true})
	require.NoError(t, err)

	_, err = f.svc.CodeProject.Get(f.ctx, bob, private.ID)
	requireKind(t, err, KindForbidden)
	got, err := f.svc.CodeProject.Get(f.ctx, bob, public.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared", got.Name)

	_, err = f.svc.CodeProject.Update(f.ctx, bob, public.ID, UpdateCodeProjectInput{Code: ptr("rm -rf /")})
	requireKind(t, err, KindForbidden)

	f.clock.Advance(time.Minute)
	updated, err := f.svc.CodeProject.Update(f.ctx, alice, private.ID, UpdateCodeProjectInput{Code: ptr("package main\n")})
	require.NoError(t, err)
	assert.Equal(t, testEpoch.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, testEpoch, updated.CreatedAt)
}

func TestKnowledgeBase_AdminWritesAndViews(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "root", model.RoleAdmin)
	_, user := f.user(t, "alice", model.RoleUser)

	_, err := f.svc.KnowledgeBase.Create(f.ctx, user, ArticleInput{Title: "x", Content: "y", Category: "dns"})
	requireKind(t, err, KindForbidden)

	a, err := f.svc.KnowledgeBase.Create(f.ctx, admin, ArticleInput{Title: "Pointing DNS", Content: "Use A records", Category: "dns", Tags: []string{"DNS", " dns ", "records"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"dns", "records"}, a.Tags)
	require.NotNil(t, a.AuthorID)
	_, err = f.svc.KnowledgeBase.Create(f.ctx, admin, ArticleInput{Title: "Mail", Content: "SMTP", Category: "email"})
	require.NoError(t, err)

	dns, err := f.svc.KnowledgeBase.List(f.ctx, "dns")
	require.NoError(t, err)
	require.Len(t, dns, 1)

	_, err = f.svc.KnowledgeBase.Get(f.ctx, a.ID)
	require.NoError(t, err)
	viewed, err := f.svc.KnowledgeBase.Get(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, viewed.Views)
}

func TestAuditLogs_RecordAndList(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "root", model.RoleAdmin)
	_, user := f.user(t, "alice", model.RoleUser)

	for _, path := range []string{"/api/domains", "/api/files"} {
		require.NoError(t, f.svc.AuditLog.Record(f.ctx, &model.AuditLog{Method: http.MethodPost, Path: path, StatusCode: 201}))
	}

	_, err := f.svc.AuditLog.List(f.ctx, user, 10)
	requireKind(t, err, KindForbidden)

	logs, err := f.svc.AuditLog.List(f.ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "/api/files", logs[0].Path)
	assert.Equal(t, testEpoch, logs[0].CreatedAt)
}

func TestDashboard_Summary(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "root", model.RoleAdmin)
	alice, actor := f.user(t, "alice", model.RoleUser)
	p, err := f.svc.Package.Create(f.ctx, admin, PackageInput{Name: "Basic", DiskSpace: 1, Bandwidth: model.Unlimited, EmailAccounts: 4, Databases: 1, Domains: 2})
	require.NoError(t, err)
	_, err = f.svc.User.Update(f.ctx, admin, alice.ID, UpdateUserInput{PackageID: &p.ID, DiskUsage: ptr(512)})
	require.NoError(t, err)

	f.domain(t, actor, "example.com")
	_, err = f.svc.EmailAccount.Create(f.ctx, actor, EmailAccountInput{Email: "a@example.com", Password: "mailbox-pass"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Notification.Notify(f.ctx, &model.Notification{UserID: &alice.ID, Title: "t", Message: "m"}))
	_, err = f.svc.ServerStats.Record(f.ctx, System, ServerStatsInput{CPUUsage: 12})
	require.NoError(t, err)

	sum, err := f.svc.Dashboard.Summary(f.ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Domains)
	assert.Equal(t, 1, sum.EmailAccounts)
	assert.Equal(t, 1, sum.UnreadNotifications)
	require.NotNil(t, sum.ServerStats)
	assert.Nil(t, sum.LatestScan)

	assert.InDelta(t, 50.0, sum.Usage["domains"].Percent, 0.001)
	assert.InDelta(t, 25.0, sum.Usage["emailAccounts"].Percent, 0.001)
	assert.InDelta(t, 50.0, sum.Usage["diskSpace"].Percent, 0.001)
	assert.True(t, sum.Usage["bandwidth"].Unlimited)
	assert.Equal(t, "Unlimited", sum.Usage["bandwidth"].Display)
}
