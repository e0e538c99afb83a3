package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
)

// Memory is a process-local Store. Rows are copied in and out so callers
// never share state with the store.
type Memory struct {
	ids platform.IDGenerator

	mu            sync.RWMutex
	users         *table[model.User]
	packages      *table[model.HostingPackage]
	domains       *table[model.Domain]
	dnsRecords    *table[model.DnsRecord]
	certificates  *table[model.SslCertificate]
	emailAccounts *table[model.EmailAccount]
	databases     *table[model.Database]
	files         *table[model.FileEntry]
	fileVersions  *table[model.FileVersion]
	stats         *table[model.ServerStats]
	notifications *table[model.Notification]
	backups       *table[model.Backup]
	apiKeys       *table[model.ApiKey]
	widgets       *table[model.DashboardWidget]
	scans         *table[model.SecurityScan]
	webmail       *table[model.WebmailSettings]
	codeProjects  *table[model.CodeProject]
	articles      *table[model.KnowledgeBaseArticle]
	auditLogs     *table[model.AuditLog]
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store drawing row ids from ids.
func NewMemory(ids platform.IDGenerator) *Memory {
	return &Memory{
		ids:           ids,
		users:         newTable[model.User](),
		packages:      newTable[model.HostingPackage](),
		domains:       newTable[model.Domain](),
		dnsRecords:    newTable[model.DnsRecord](),
		certificates:  newTable[model.SslCertificate](),
		emailAccounts: newTable[model.EmailAccount](),
		databases:     newTable[model.Database](),
		files:         newTable[model.FileEntry](),
		fileVersions:  newTable[model.FileVersion](),
		stats:         newTable[model.ServerStats](),
		notifications: newTable[model.Notification](),
		backups:       newTable[model.Backup](),
		apiKeys:       newTable[model.ApiKey](),
		widgets:       newTable[model.DashboardWidget](),
		scans:         newTable[model.SecurityScan](),
		webmail:       newTable[model.WebmailSettings](),
		codeProjects:  newTable[model.CodeProject](),
		articles:      newTable[model.KnowledgeBaseArticle](),
		auditLogs:     newTable[model.AuditLog](),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func ownedBy[T any](f Filter, owner func(T) int64) func(T) bool {
	if f.UserID == nil {
		return nil
	}
	uid := *f.UserID
	return func(v T) bool { return owner(v) == uid }
}

// ---------- Users ----------

func (m *Memory) userTaken(u *model.User) bool {
	_, taken := m.users.find(func(o model.User) bool {
		return o.ID != u.ID && (o.Email == u.Email || o.Username == u.Username)
	})
	return taken
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = 0
	if m.userTaken(u) {
		return ErrConflict
	}
	u.ID = m.ids.Next("users")
	m.users.insert(u.ID, *u)
	return nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users.find(func(o model.User) bool { return o.Email == email })
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users.find(func(o model.User) bool { return o.Username == username })
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListUsers(context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users.all(nil), nil
}

func (m *Memory) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users.get(u.ID); !ok {
		return ErrNotFound
	}
	if m.userTaken(u) {
		return ErrConflict
	}
	m.users.replace(u.ID, *u)
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.users.remove(id) {
		return ErrNotFound
	}

	owned := func(uid int64) bool { return uid == id }
	var fileIDs []int64
	for _, f := range m.files.all(func(f model.FileEntry) bool { return owned(f.UserID) }) {
		fileIDs = append(fileIDs, f.ID)
	}
	m.fileVersions.removeWhere(func(v model.FileVersion) bool { return slices.Contains(fileIDs, v.FileID) })
	m.files.removeWhere(func(f model.FileEntry) bool { return owned(f.UserID) })
	m.domains.removeWhere(func(d model.Domain) bool { return owned(d.UserID) })
	m.dnsRecords.removeWhere(func(r model.DnsRecord) bool { return owned(r.UserID) })
	m.certificates.removeWhere(func(c model.SslCertificate) bool { return owned(c.UserID) })
	m.emailAccounts.removeWhere(func(a model.EmailAccount) bool { return owned(a.UserID) })
	m.databases.removeWhere(func(d model.Database) bool { return owned(d.UserID) })
	m.backups.removeWhere(func(b model.Backup) bool { return owned(b.UserID) })
	m.apiKeys.removeWhere(func(k model.ApiKey) bool { return owned(k.UserID) })
	m.widgets.removeWhere(func(w model.DashboardWidget) bool { return owned(w.UserID) })
	m.webmail.removeWhere(func(s model.WebmailSettings) bool { return owned(s.UserID) })
	m.codeProjects.removeWhere(func(p model.CodeProject) bool { return owned(p.UserID) })
	m.notifications.removeWhere(func(n model.Notification) bool { return n.UserID != nil && owned(*n.UserID) })
	for _, a := range m.articles.all(func(a model.KnowledgeBaseArticle) bool { return a.AuthorID != nil && owned(*a.AuthorID) }) {
		a.AuthorID = nil
		m.articles.replace(a.ID, a)
	}
	return nil
}

func (m *Memory) CountUsers(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users.count(), nil
}

func (m *Memory) CountUsersByPackage(_ context.Context, packageID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users.all(func(u model.User) bool {
		return u.PackageID != nil && *u.PackageID == packageID
	})), nil
}

// ---------- Hosting packages ----------

func (m *Memory) CreatePackage(_ context.Context, p *model.HostingPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.ids.Next("hosting_packages")
	m.packages.insert(p.ID, *p)
	return nil
}

func (m *Memory) GetPackage(_ context.Context, id int64) (*model.HostingPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packages.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPackages(context.Context) ([]model.HostingPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.packages.all(nil), nil
}

func (m *Memory) UpdatePackage(_ context.Context, p *model.HostingPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.packages.replace(p.ID, *p) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeletePackage(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.packages.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Domains ----------

func (m *Memory) domainTaken(d *model.Domain) bool {
	_, taken := m.domains.find(func(o model.Domain) bool {
		return o.ID != d.ID && o.Domain == d.Domain
	})
	return taken
}

func (m *Memory) CreateDomain(_ context.Context, d *model.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = 0
	if m.domainTaken(d) {
		return ErrConflict
	}
	d.ID = m.ids.Next("domains")
	m.domains.insert(d.ID, *d)
	return nil
}

func (m *Memory) GetDomain(_ context.Context, id int64) (*model.Domain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.domains.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *Memory) ListDomains(_ context.Context, f Filter) ([]model.Domain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.domains.all(ownedBy(f, func(d model.Domain) int64 { return d.UserID })), nil
}

func (m *Memory) UpdateDomain(_ context.Context, d *model.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.domains.get(d.ID); !ok {
		return ErrNotFound
	}
	if m.domainTaken(d) {
		return ErrConflict
	}
	m.domains.replace(d.ID, *d)
	return nil
}

func (m *Memory) DeleteDomain(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.domains.remove(id) {
		return ErrNotFound
	}
	m.dnsRecords.removeWhere(func(r model.DnsRecord) bool { return r.DomainID == id })
	m.certificates.removeWhere(func(c model.SslCertificate) bool { return c.DomainID == id })
	return nil
}

// ---------- DNS records ----------

func dnsFilter(f Filter) func(model.DnsRecord) bool {
	return func(r model.DnsRecord) bool {
		if f.UserID != nil && r.UserID != *f.UserID {
			return false
		}
		if f.DomainID != nil && r.DomainID != *f.DomainID {
			return false
		}
		return true
	}
}

func (m *Memory) CreateDnsRecord(_ context.Context, r *model.DnsRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.ids.Next("dns_records")
	m.dnsRecords.insert(r.ID, *r)
	return nil
}

func (m *Memory) GetDnsRecord(_ context.Context, id int64) (*model.DnsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.dnsRecords.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) ListDnsRecords(_ context.Context, f Filter) ([]model.DnsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dnsRecords.all(dnsFilter(f)), nil
}

func (m *Memory) UpdateDnsRecord(_ context.Context, r *model.DnsRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dnsRecords.replace(r.ID, *r) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteDnsRecord(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dnsRecords.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- SSL certificates ----------

func (m *Memory) CreateSslCertificate(_ context.Context, c *model.SslCertificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.ids.Next("ssl_certificates")
	m.certificates.insert(c.ID, *c)
	return nil
}

func (m *Memory) GetSslCertificate(_ context.Context, id int64) (*model.SslCertificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.certificates.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) ListSslCertificates(_ context.Context, f Filter) ([]model.SslCertificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.certificates.all(func(c model.SslCertificate) bool {
		if f.UserID != nil && c.UserID != *f.UserID {
			return false
		}
		if f.DomainID != nil && c.DomainID != *f.DomainID {
			return false
		}
		return true
	}), nil
}

func (m *Memory) UpdateSslCertificate(_ context.Context, c *model.SslCertificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.certificates.replace(c.ID, *c) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteSslCertificate(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.certificates.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Email accounts ----------

func (m *Memory) emailTaken(a *model.EmailAccount) bool {
	_, taken := m.emailAccounts.find(func(o model.EmailAccount) bool {
		return o.ID != a.ID && o.Email == a.Email
	})
	return taken
}

func (m *Memory) CreateEmailAccount(_ context.Context, a *model.EmailAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = 0
	if m.emailTaken(a) {
		return ErrConflict
	}
	a.ID = m.ids.Next("email_accounts")
	m.emailAccounts.insert(a.ID, *a)
	return nil
}

func (m *Memory) GetEmailAccount(_ context.Context, id int64) (*model.EmailAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.emailAccounts.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListEmailAccounts(_ context.Context, f Filter) ([]model.EmailAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.emailAccounts.all(ownedBy(f, func(a model.EmailAccount) int64 { return a.UserID })), nil
}

func (m *Memory) UpdateEmailAccount(_ context.Context, a *model.EmailAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emailAccounts.get(a.ID); !ok {
		return ErrNotFound
	}
	if m.emailTaken(a) {
		return ErrConflict
	}
	m.emailAccounts.replace(a.ID, *a)
	return nil
}

func (m *Memory) DeleteEmailAccount(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.emailAccounts.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Databases ----------

func (m *Memory) CreateDatabase(_ context.Context, d *model.Database) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.ids.Next("databases")
	m.databases.insert(d.ID, *d)
	return nil
}

func (m *Memory) GetDatabase(_ context.Context, id int64) (*model.Database, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.databases.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *Memory) ListDatabases(_ context.Context, f Filter) ([]model.Database, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.databases.all(ownedBy(f, func(d model.Database) int64 { return d.UserID })), nil
}

func (m *Memory) UpdateDatabase(_ context.Context, d *model.Database) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.databases.replace(d.ID, *d) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteDatabase(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.databases.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Files ----------

func (m *Memory) CreateFileEntry(_ context.Context, f *model.FileEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = m.ids.Next("file_entries")
	m.files.insert(f.ID, *f)
	return nil
}

func (m *Memory) GetFileEntry(_ context.Context, id int64) (*model.FileEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (m *Memory) ListFileEntries(_ context.Context, f Filter) ([]model.FileEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.all(ownedBy(f, func(e model.FileEntry) int64 { return e.UserID })), nil
}

func (m *Memory) ListFileEntriesAt(_ context.Context, userID int64, dir string) ([]model.FileEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.all(func(e model.FileEntry) bool {
		return e.UserID == userID && e.Path == dir
	}), nil
}

func (m *Memory) UpdateFileEntry(_ context.Context, f *model.FileEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.files.replace(f.ID, *f) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteFileEntry(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.files.remove(id) {
		return ErrNotFound
	}
	m.fileVersions.removeWhere(func(v model.FileVersion) bool { return v.FileID == id })
	return nil
}

func (m *Memory) DeleteFileEntriesUnder(_ context.Context, userID int64, dir string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var removed []int64
	n := m.files.removeWhere(func(e model.FileEntry) bool {
		hit := e.UserID == userID && (e.Path == dir || strings.HasPrefix(e.Path, prefix))
		if hit {
			removed = append(removed, e.ID)
		}
		return hit
	})
	m.fileVersions.removeWhere(func(v model.FileVersion) bool { return slices.Contains(removed, v.FileID) })
	return n, nil
}

func (m *Memory) CreateFileVersion(_ context.Context, v *model.FileVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.ids.Next("file_versions")
	m.fileVersions.insert(v.ID, *v)
	return nil
}

func (m *Memory) ListFileVersions(_ context.Context, fileID int64) ([]model.FileVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fileVersions.newest(func(v model.FileVersion) bool { return v.FileID == fileID }, 0), nil
}

// ---------- Server stats ----------

func (m *Memory) CreateServerStats(_ context.Context, s *model.ServerStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.ids.Next("server_stats")
	m.stats.insert(s.ID, *s)
	return nil
}

func (m *Memory) LatestServerStats(context.Context) (*model.ServerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := m.stats.newestBy(nil, statsTime, 1)
	if len(latest) == 0 {
		return nil, ErrNotFound
	}
	return &latest[0], nil
}

func (m *Memory) ServerStatsHistory(_ context.Context, limit int) ([]model.ServerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		return []model.ServerStats{}, nil
	}
	return m.stats.newestBy(nil, statsTime, limit), nil
}

func statsTime(s model.ServerStats) time.Time { return s.Timestamp }

func scanTime(s model.SecurityScan) time.Time { return s.CreatedAt }

// ---------- Notifications ----------

func (m *Memory) CreateNotification(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.ids.Next("notifications")
	m.notifications.insert(n.ID, *n)
	return nil
}

func (m *Memory) GetNotification(_ context.Context, id int64) (*model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (m *Memory) ListNotifications(_ context.Context, f Filter) ([]model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keep func(model.Notification) bool
	if f.UserID != nil {
		uid := *f.UserID
		keep = func(n model.Notification) bool { return n.UserID == nil || *n.UserID == uid }
	}
	return m.notifications.newestBy(keep, func(n model.Notification) time.Time { return n.CreatedAt }, f.Limit), nil
}

func (m *Memory) UpdateNotification(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.notifications.replace(n.ID, *n) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteNotification(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.notifications.remove(id) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) MarkNotificationsRead(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unread := m.notifications.all(func(n model.Notification) bool {
		return n.UserID != nil && *n.UserID == userID && !n.IsRead
	})
	for _, n := range unread {
		n.IsRead = true
		m.notifications.replace(n.ID, n)
	}
	return len(unread), nil
}

// ---------- Backups ----------

func (m *Memory) CreateBackup(_ context.Context, b *model.Backup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.ids.Next("backups")
	m.backups.insert(b.ID, *b)
	return nil
}

func (m *Memory) GetBackup(_ context.Context, id int64) (*model.Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backups.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *Memory) ListBackups(_ context.Context, f Filter) ([]model.Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backups.newestBy(ownedBy(f, func(b model.Backup) int64 { return b.UserID }), func(b model.Backup) time.Time { return b.CreatedAt }, f.Limit), nil
}

func (m *Memory) UpdateBackup(_ context.Context, b *model.Backup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.backups.replace(b.ID, *b) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteBackup(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.backups.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- API keys ----------

func (m *Memory) CreateApiKey(_ context.Context, k *model.ApiKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k.ID = 0
	if _, dup := m.apiKeys.find(func(o model.ApiKey) bool { return o.KeyHash == k.KeyHash }); dup {
		return ErrConflict
	}
	k.ID = m.ids.Next("api_keys")
	stored := *k
	stored.Permissions = slices.Clone(k.Permissions)
	m.apiKeys.insert(k.ID, stored)
	return nil
}

func (m *Memory) GetApiKey(_ context.Context, id int64) (*model.ApiKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.apiKeys.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &k, nil
}

func (m *Memory) GetApiKeyByHash(_ context.Context, hash string) (*model.ApiKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.apiKeys.find(func(o model.ApiKey) bool { return o.KeyHash == hash })
	if !ok {
		return nil, ErrNotFound
	}
	return &k, nil
}

func (m *Memory) ListApiKeys(_ context.Context, f Filter) ([]model.ApiKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiKeys.newestBy(ownedBy(f, func(k model.ApiKey) int64 { return k.UserID }), func(k model.ApiKey) time.Time { return k.CreatedAt }, f.Limit), nil
}

func (m *Memory) UpdateApiKey(_ context.Context, k *model.ApiKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *k
	stored.Permissions = slices.Clone(k.Permissions)
	if !m.apiKeys.replace(k.ID, stored) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteApiKey(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.apiKeys.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Dashboard widgets ----------

func (m *Memory) CreateWidget(_ context.Context, w *model.DashboardWidget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = m.ids.Next("dashboard_widgets")
	stored := *w
	stored.Settings = slices.Clone(w.Settings)
	m.widgets.insert(w.ID, stored)
	return nil
}

func (m *Memory) GetWidget(_ context.Context, id int64) (*model.DashboardWidget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.widgets.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (m *Memory) ListWidgets(_ context.Context, f Filter) ([]model.DashboardWidget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.widgets.all(ownedBy(f, func(w model.DashboardWidget) int64 { return w.UserID }))
	slices.SortStableFunc(out, func(a, b model.DashboardWidget) int { return a.Position - b.Position })
	return out, nil
}

func (m *Memory) UpdateWidget(_ context.Context, w *model.DashboardWidget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *w
	stored.Settings = slices.Clone(w.Settings)
	if !m.widgets.replace(w.ID, stored) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteWidget(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.widgets.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Security scans ----------

func (m *Memory) CreateSecurityScan(_ context.Context, s *model.SecurityScan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.ids.Next("security_scans")
	m.scans.insert(s.ID, *s)
	return nil
}

func (m *Memory) LatestSecurityScan(context.Context) (*model.SecurityScan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := m.scans.newestBy(nil, scanTime, 1)
	if len(latest) == 0 {
		return nil, ErrNotFound
	}
	return &latest[0], nil
}

func (m *Memory) ListSecurityScans(_ context.Context, limit int) ([]model.SecurityScan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scans.newestBy(nil, scanTime, limit), nil
}

// ---------- Webmail settings ----------

func (m *Memory) GetWebmailSettings(_ context.Context, userID int64) (*model.WebmailSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.webmail.find(func(s model.WebmailSettings) bool { return s.UserID == userID })
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) UpsertWebmailSettings(_ context.Context, s *model.WebmailSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.webmail.find(func(o model.WebmailSettings) bool { return o.UserID == s.UserID }); ok {
		s.ID = existing.ID
		m.webmail.replace(s.ID, *s)
		return nil
	}
	s.ID = m.ids.Next("webmail_settings")
	m.webmail.insert(s.ID, *s)
	return nil
}

// ---------- Code projects ----------

func (m *Memory) CreateCodeProject(_ context.Context, p *model.CodeProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.ids.Next("code_projects")
	m.codeProjects.insert(p.ID, *p)
	return nil
}

func (m *Memory) GetCodeProject(_ context.Context, id int64) (*model.CodeProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.codeProjects.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListCodeProjects(_ context.Context, f Filter) ([]model.CodeProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.codeProjects.all(ownedBy(f, func(p model.CodeProject) int64 { return p.UserID })), nil
}

func (m *Memory) UpdateCodeProject(_ context.Context, p *model.CodeProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.codeProjects.replace(p.ID, *p) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteCodeProject(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.codeProjects.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Knowledge base ----------

func (m *Memory) CreateArticle(_ context.Context, a *model.KnowledgeBaseArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.ids.Next("knowledge_base")
	stored := *a
	stored.Tags = slices.Clone(a.Tags)
	m.articles.insert(a.ID, stored)
	return nil
}

func (m *Memory) GetArticle(_ context.Context, id int64) (*model.KnowledgeBaseArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.articles.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListArticles(_ context.Context, f Filter) ([]model.KnowledgeBaseArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keep func(model.KnowledgeBaseArticle) bool
	if f.Category != "" {
		keep = func(a model.KnowledgeBaseArticle) bool { return a.Category == f.Category }
	}
	return m.articles.all(keep), nil
}

func (m *Memory) UpdateArticle(_ context.Context, a *model.KnowledgeBaseArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *a
	stored.Tags = slices.Clone(a.Tags)
	if !m.articles.replace(a.ID, stored) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteArticle(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.articles.remove(id) {
		return ErrNotFound
	}
	return nil
}

// ---------- Audit logs ----------

func (m *Memory) CreateAuditLog(_ context.Context, l *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.ids.Next("audit_logs")
	m.auditLogs.insert(l.ID, *l)
	return nil
}

func (m *Memory) ListAuditLogs(_ context.Context, limit int) ([]model.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auditLogs.newestBy(nil, func(l model.AuditLog) time.Time { return l.CreatedAt }, limit), nil
}
