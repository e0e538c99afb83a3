// Package store defines the persistence boundary of the panel and its
// in-memory backend. The relational backend lives in store/postgres.
package store

import (
	"context"
	"errors"

	"github.com/edvin/hostpanel/internal/model"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Filter narrows list operations. Nil fields are ignored. Each list method
// documents which fields it honors.
type Filter struct {
	UserID   *int64
	DomainID *int64
	Category string
	Limit    int
}

// ByUser is shorthand for a Filter scoped to one owner.
func ByUser(userID int64) Filter {
	return Filter{UserID: &userID}
}

type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	// DeleteUser removes the user and every row the user owns.
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int, error)
	CountUsersByPackage(ctx context.Context, packageID int64) (int, error)
}

type Packages interface {
	CreatePackage(ctx context.Context, p *model.HostingPackage) error
	GetPackage(ctx context.Context, id int64) (*model.HostingPackage, error)
	ListPackages(ctx context.Context) ([]model.HostingPackage, error)
	UpdatePackage(ctx context.Context, p *model.HostingPackage) error
	DeletePackage(ctx context.Context, id int64) error
}

type Domains interface {
	CreateDomain(ctx context.Context, d *model.Domain) error
	GetDomain(ctx context.Context, id int64) (*model.Domain, error)
	// ListDomains honors UserID.
	ListDomains(ctx context.Context, f Filter) ([]model.Domain, error)
	UpdateDomain(ctx context.Context, d *model.Domain) error
	// DeleteDomain also removes the domain's DNS records and certificates.
	DeleteDomain(ctx context.Context, id int64) error
}

type DnsRecords interface {
	CreateDnsRecord(ctx context.Context, r *model.DnsRecord) error
	GetDnsRecord(ctx context.Context, id int64) (*model.DnsRecord, error)
	// ListDnsRecords honors UserID and DomainID.
	ListDnsRecords(ctx context.Context, f Filter) ([]model.DnsRecord, error)
	UpdateDnsRecord(ctx context.Context, r *model.DnsRecord) error
	DeleteDnsRecord(ctx context.Context, id int64) error
}

type SslCertificates interface {
	CreateSslCertificate(ctx context.Context, c *model.SslCertificate) error
	GetSslCertificate(ctx context.Context, id int64) (*model.SslCertificate, error)
	// ListSslCertificates honors UserID and DomainID.
	ListSslCertificates(ctx context.Context, f Filter) ([]model.SslCertificate, error)
	UpdateSslCertificate(ctx context.Context, c *model.SslCertificate) error
	DeleteSslCertificate(ctx context.Context, id int64) error
}

type EmailAccounts interface {
	CreateEmailAccount(ctx context.Context, a *model.EmailAccount) error
	GetEmailAccount(ctx context.Context, id int64) (*model.EmailAccount, error)
	// ListEmailAccounts honors UserID.
	ListEmailAccounts(ctx context.Context, f Filter) ([]model.EmailAccount, error)
	UpdateEmailAccount(ctx context.Context, a *model.EmailAccount) error
	DeleteEmailAccount(ctx context.Context, id int64) error
}

type Databases interface {
	CreateDatabase(ctx context.Context, d *model.Database) error
	GetDatabase(ctx context.Context, id int64) (*model.Database, error)
	// ListDatabases honors UserID.
	ListDatabases(ctx context.Context, f Filter) ([]model.Database, error)
	UpdateDatabase(ctx context.Context, d *model.Database) error
	DeleteDatabase(ctx context.Context, id int64) error
}

type Files interface {
	CreateFileEntry(ctx context.Context, f *model.FileEntry) error
	GetFileEntry(ctx context.Context, id int64) (*model.FileEntry, error)
	// ListFileEntries honors UserID.
	ListFileEntries(ctx context.Context, f Filter) ([]model.FileEntry, error)
	// ListFileEntriesAt returns the entries whose owner and directory match
	// exactly. Nested entries are not included.
	ListFileEntriesAt(ctx context.Context, userID int64, dir string) ([]model.FileEntry, error)
	UpdateFileEntry(ctx context.Context, f *model.FileEntry) error
	DeleteFileEntry(ctx context.Context, id int64) error
	// DeleteFileEntriesUnder removes every entry of the user located in dir
	// or below it and returns the number removed.
	DeleteFileEntriesUnder(ctx context.Context, userID int64, dir string) (int, error)
	CreateFileVersion(ctx context.Context, v *model.FileVersion) error
	// ListFileVersions is most-recent-first.
	ListFileVersions(ctx context.Context, fileID int64) ([]model.FileVersion, error)
}

type ServerStats interface {
	CreateServerStats(ctx context.Context, s *model.ServerStats) error
	LatestServerStats(ctx context.Context) (*model.ServerStats, error)
	// ServerStatsHistory returns at most limit samples, most-recent-first.
	ServerStatsHistory(ctx context.Context, limit int) ([]model.ServerStats, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id int64) (*model.Notification, error)
	// ListNotifications is most-recent-first. With UserID set it returns the
	// user's notifications plus broadcasts. Honors Limit.
	ListNotifications(ctx context.Context, f Filter) ([]model.Notification, error)
	UpdateNotification(ctx context.Context, n *model.Notification) error
	DeleteNotification(ctx context.Context, id int64) error
	// MarkNotificationsRead flags every unread notification addressed to the
	// user as read and returns how many changed.
	MarkNotificationsRead(ctx context.Context, userID int64) (int, error)
}

type Backups interface {
	CreateBackup(ctx context.Context, b *model.Backup) error
	GetBackup(ctx context.Context, id int64) (*model.Backup, error)
	// ListBackups is most-recent-first and honors UserID.
	ListBackups(ctx context.Context, f Filter) ([]model.Backup, error)
	UpdateBackup(ctx context.Context, b *model.Backup) error
	DeleteBackup(ctx context.Context, id int64) error
}

type ApiKeys interface {
	CreateApiKey(ctx context.Context, k *model.ApiKey) error
	GetApiKey(ctx context.Context, id int64) (*model.ApiKey, error)
	GetApiKeyByHash(ctx context.Context, hash string) (*model.ApiKey, error)
	// ListApiKeys is most-recent-first and honors UserID.
	ListApiKeys(ctx context.Context, f Filter) ([]model.ApiKey, error)
	UpdateApiKey(ctx context.Context, k *model.ApiKey) error
	DeleteApiKey(ctx context.Context, id int64) error
}

type Widgets interface {
	CreateWidget(ctx context.Context, w *model.DashboardWidget) error
	GetWidget(ctx context.Context, id int64) (*model.DashboardWidget, error)
	// ListWidgets is ordered by position and honors UserID.
	ListWidgets(ctx context.Context, f Filter) ([]model.DashboardWidget, error)
	UpdateWidget(ctx context.Context, w *model.DashboardWidget) error
	DeleteWidget(ctx context.Context, id int64) error
}

type SecurityScans interface {
	CreateSecurityScan(ctx context.Context, s *model.SecurityScan) error
	LatestSecurityScan(ctx context.Context) (*model.SecurityScan, error)
	// ListSecurityScans returns at most limit scans, most-recent-first.
	ListSecurityScans(ctx context.Context, limit int) ([]model.SecurityScan, error)
}

type Webmail interface {
	GetWebmailSettings(ctx context.Context, userID int64) (*model.WebmailSettings, error)
	UpsertWebmailSettings(ctx context.Context, s *model.WebmailSettings) error
}

type CodeProjects interface {
	CreateCodeProject(ctx context.Context, p *model.CodeProject) error
	GetCodeProject(ctx context.Context, id int64) (*model.CodeProject, error)
	// ListCodeProjects honors UserID.
	ListCodeProjects(ctx context.Context, f Filter) ([]model.CodeProject, error)
	UpdateCodeProject(ctx context.Context, p *model.CodeProject) error
	DeleteCodeProject(ctx context.Context, id int64) error
}

type KnowledgeBase interface {
	CreateArticle(ctx context.Context, a *model.KnowledgeBaseArticle) error
	GetArticle(ctx context.Context, id int64) (*model.KnowledgeBaseArticle, error)
	// ListArticles honors Category.
	ListArticles(ctx context.Context, f Filter) ([]model.KnowledgeBaseArticle, error)
	UpdateArticle(ctx context.Context, a *model.KnowledgeBaseArticle) error
	DeleteArticle(ctx context.Context, id int64) error
}

type AuditLogs interface {
	CreateAuditLog(ctx context.Context, l *model.AuditLog) error
	// ListAuditLogs returns at most limit entries, most-recent-first.
	ListAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error)
}

// Store is the full persistence capability set. Both backends implement it.
type Store interface {
	Users
	Packages
	Domains
	DnsRecords
	SslCertificates
	EmailAccounts
	Databases
	Files
	ServerStats
	Notifications
	Backups
	ApiKeys
	Widgets
	SecurityScans
	Webmail
	CodeProjects
	KnowledgeBase
	AuditLogs

	Ping(ctx context.Context) error
}
