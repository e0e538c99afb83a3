package postgres

import (
	"context"
	"fmt"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/store"
)

// ---------- Hosting packages ----------

const packageColumns = `id, name, disk_space, bandwidth, email_accounts, databases, domains, status, created_at`

func scanPackage(row rowScanner) (model.HostingPackage, error) {
	var p model.HostingPackage
	err := row.Scan(&p.ID, &p.Name, &p.DiskSpace, &p.Bandwidth, &p.EmailAccounts,
		&p.Databases, &p.Domains, &p.Status, &p.CreatedAt)
	return p, err
}

func (s *Store) CreatePackage(ctx context.Context, p *model.HostingPackage) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO hosting_packages (name, disk_space, bandwidth, email_accounts, databases, domains, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.Name, p.DiskSpace, p.Bandwidth, p.EmailAccounts, p.Databases, p.Domains, p.Status, p.CreatedAt,
	).Scan(&p.ID)
	return wrap("insert hosting package", err)
}

func (s *Store) GetPackage(ctx context.Context, id int64) (*model.HostingPackage, error) {
	p, err := scanPackage(s.db.QueryRow(ctx,
		`SELECT `+packageColumns+` FROM hosting_packages WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get hosting package", err)
	}
	return &p, nil
}

func (s *Store) ListPackages(ctx context.Context) ([]model.HostingPackage, error) {
	rows, err := s.queryAll(ctx, "list hosting packages",
		`SELECT `+packageColumns+` FROM hosting_packages ORDER BY id`, nil)
	if err != nil {
		return nil, err
	}
	pkgs, err := collect(rows, scanPackage)
	if err != nil {
		return nil, fmt.Errorf("scan hosting packages: %w", err)
	}
	return pkgs, nil
}

func (s *Store) UpdatePackage(ctx context.Context, p *model.HostingPackage) error {
	return s.execOne(ctx, "update hosting package",
		`UPDATE hosting_packages SET name = $2, disk_space = $3, bandwidth = $4, email_accounts = $5,
			databases = $6, domains = $7, status = $8
		 WHERE id = $1`,
		p.ID, p.Name, p.DiskSpace, p.Bandwidth, p.EmailAccounts, p.Databases, p.Domains, p.Status)
}

func (s *Store) DeletePackage(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete hosting package", `DELETE FROM hosting_packages WHERE id = $1`, id)
}

// ---------- Domains ----------

const domainColumns = `id, user_id, domain, type, status, created_at`

func scanDomain(row rowScanner) (model.Domain, error) {
	var d model.Domain
	err := row.Scan(&d.ID, &d.UserID, &d.Domain, &d.Type, &d.Status, &d.CreatedAt)
	return d, err
}

func (s *Store) CreateDomain(ctx context.Context, d *model.Domain) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO domains (user_id, domain, type, status, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.UserID, d.Domain, d.Type, d.Status, d.CreatedAt,
	).Scan(&d.ID)
	return wrap("insert domain", err)
}

func (s *Store) GetDomain(ctx context.Context, id int64) (*model.Domain, error) {
	d, err := scanDomain(s.db.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get domain", err)
	}
	return &d, nil
}

func (s *Store) ListDomains(ctx context.Context, f store.Filter) ([]model.Domain, error) {
	rows, err := s.queryAll(ctx, "list domains",
		`SELECT `+domainColumns+` FROM domains
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY id`, []any{f.UserID})
	if err != nil {
		return nil, err
	}
	domains, err := collect(rows, scanDomain)
	if err != nil {
		return nil, fmt.Errorf("scan domains: %w", err)
	}
	return domains, nil
}

func (s *Store) UpdateDomain(ctx context.Context, d *model.Domain) error {
	return s.execOne(ctx, "update domain",
		`UPDATE domains SET user_id = $2, domain = $3, type = $4, status = $5 WHERE id = $1`,
		d.ID, d.UserID, d.Domain, d.Type, d.Status)
}

// DeleteDomain relies on ON DELETE CASCADE for records and certificates.
func (s *Store) DeleteDomain(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete domain", `DELETE FROM domains WHERE id = $1`, id)
}

// ---------- DNS records ----------

const dnsRecordColumns = `id, domain_id, user_id, name, type, value, priority, ttl, status, created_at`

func scanDnsRecord(row rowScanner) (model.DnsRecord, error) {
	var r model.DnsRecord
	err := row.Scan(&r.ID, &r.DomainID, &r.UserID, &r.Name, &r.Type, &r.Value,
		&r.Priority, &r.TTL, &r.Status, &r.CreatedAt)
	return r, err
}

func (s *Store) CreateDnsRecord(ctx context.Context, r *model.DnsRecord) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO dns_records (domain_id, user_id, name, type, value, priority, ttl, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		r.DomainID, r.UserID, r.Name, r.Type, r.Value, r.Priority, r.TTL, r.Status, r.CreatedAt,
	).Scan(&r.ID)
	return wrap("insert dns record", err)
}

func (s *Store) GetDnsRecord(ctx context.Context, id int64) (*model.DnsRecord, error) {
	r, err := scanDnsRecord(s.db.QueryRow(ctx, `SELECT `+dnsRecordColumns+` FROM dns_records WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get dns record", err)
	}
	return &r, nil
}

func (s *Store) ListDnsRecords(ctx context.Context, f store.Filter) ([]model.DnsRecord, error) {
	rows, err := s.queryAll(ctx, "list dns records",
		`SELECT `+dnsRecordColumns+` FROM dns_records
		 WHERE ($1::bigint IS NULL OR user_id = $1) AND ($2::bigint IS NULL OR domain_id = $2)
		 ORDER BY id`, []any{f.UserID, f.DomainID})
	if err != nil {
		return nil, err
	}
	records, err := collect(rows, scanDnsRecord)
	if err != nil {
		return nil, fmt.Errorf("scan dns records: %w", err)
	}
	return records, nil
}

func (s *Store) UpdateDnsRecord(ctx context.Context, r *model.DnsRecord) error {
	return s.execOne(ctx, "update dns record",
		`UPDATE dns_records SET name = $2, type = $3, value = $4, priority = $5, ttl = $6, status = $7
		 WHERE id = $1`,
		r.ID, r.Name, r.Type, r.Value, r.Priority, r.TTL, r.Status)
}

func (s *Store) DeleteDnsRecord(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete dns record", `DELETE FROM dns_records WHERE id = $1`, id)
}

// ---------- SSL certificates ----------

const sslColumns = `id, domain_id, user_id, type, status, issuer, valid_from, valid_to, auto_renew,
	certificate, private_key, created_at`

func scanSslCertificate(row rowScanner) (model.SslCertificate, error) {
	var c model.SslCertificate
	err := row.Scan(&c.ID, &c.DomainID, &c.UserID, &c.Type, &c.Status, &c.Issuer, &c.ValidFrom,
		&c.ValidTo, &c.AutoRenew, &c.Certificate, &c.PrivateKey, &c.CreatedAt)
	c.HasPrivateKey = c.PrivateKey != nil && *c.PrivateKey != ""
	return c, err
}

func (s *Store) CreateSslCertificate(ctx context.Context, c *model.SslCertificate) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO ssl_certificates (domain_id, user_id, type, status, issuer, valid_from, valid_to,
			auto_renew, certificate, private_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		c.DomainID, c.UserID, c.Type, c.Status, c.Issuer, c.ValidFrom, c.ValidTo,
		c.AutoRenew, c.Certificate, c.PrivateKey, c.CreatedAt,
	).Scan(&c.ID)
	return wrap("insert ssl certificate", err)
}

func (s *Store) GetSslCertificate(ctx context.Context, id int64) (*model.SslCertificate, error) {
	c, err := scanSslCertificate(s.db.QueryRow(ctx, `SELECT `+sslColumns+` FROM ssl_certificates WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get ssl certificate", err)
	}
	return &c, nil
}

func (s *Store) ListSslCertificates(ctx context.Context, f store.Filter) ([]model.SslCertificate, error) {
	rows, err := s.queryAll(ctx, "list ssl certificates",
		`SELECT `+sslColumns+` FROM ssl_certificates
		 WHERE ($1::bigint IS NULL OR user_id = $1) AND ($2::bigint IS NULL OR domain_id = $2)
		 ORDER BY id`, []any{f.UserID, f.DomainID})
	if err != nil {
		return nil, err
	}
	certs, err := collect(rows, scanSslCertificate)
	if err != nil {
		return nil, fmt.Errorf("scan ssl certificates: %w", err)
	}
	return certs, nil
}

func (s *Store) UpdateSslCertificate(ctx context.Context, c *model.SslCertificate) error {
	return s.execOne(ctx, "update ssl certificate",
		`UPDATE ssl_certificates SET type = $2, status = $3, issuer = $4, valid_from = $5, valid_to = $6,
			auto_renew = $7, certificate = $8, private_key = $9
		 WHERE id = $1`,
		c.ID, c.Type, c.Status, c.Issuer, c.ValidFrom, c.ValidTo, c.AutoRenew, c.Certificate, c.PrivateKey)
}

func (s *Store) DeleteSslCertificate(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete ssl certificate", `DELETE FROM ssl_certificates WHERE id = $1`, id)
}

// ---------- Email accounts ----------

const emailAccountColumns = `id, user_id, email, password, quota, status, created_at`

func scanEmailAccount(row rowScanner) (model.EmailAccount, error) {
	var a model.EmailAccount
	err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.PasswordHash, &a.Quota, &a.Status, &a.CreatedAt)
	return a, err
}

func (s *Store) CreateEmailAccount(ctx context.Context, a *model.EmailAccount) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO email_accounts (user_id, email, password, quota, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.UserID, a.Email, a.PasswordHash, a.Quota, a.Status, a.CreatedAt,
	).Scan(&a.ID)
	return wrap("insert email account", err)
}

func (s *Store) GetEmailAccount(ctx context.Context, id int64) (*model.EmailAccount, error) {
	a, err := scanEmailAccount(s.db.QueryRow(ctx, `SELECT `+emailAccountColumns+` FROM email_accounts WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get email account", err)
	}
	return &a, nil
}

func (s *Store) ListEmailAccounts(ctx context.Context, f store.Filter) ([]model.EmailAccount, error) {
	rows, err := s.queryAll(ctx, "list email accounts",
		`SELECT `+emailAccountColumns+` FROM email_accounts
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY id`, []any{f.UserID})
	if err != nil {
		return nil, err
	}
	accounts, err := collect(rows, scanEmailAccount)
	if err != nil {
		return nil, fmt.Errorf("scan email accounts: %w", err)
	}
	return accounts, nil
}

func (s *Store) UpdateEmailAccount(ctx context.Context, a *model.EmailAccount) error {
	return s.execOne(ctx, "update email account",
		`UPDATE email_accounts SET email = $2, password = $3, quota = $4, status = $5 WHERE id = $1`,
		a.ID, a.Email, a.PasswordHash, a.Quota, a.Status)
}

func (s *Store) DeleteEmailAccount(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete email account", `DELETE FROM email_accounts WHERE id = $1`, id)
}

// ---------- Databases ----------

const databaseColumns = `id, user_id, name, type, size, status, created_at`

func scanDatabase(row rowScanner) (model.Database, error) {
	var d model.Database
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.Size, &d.Status, &d.CreatedAt)
	return d, err
}

func (s *Store) CreateDatabase(ctx context.Context, d *model.Database) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO databases (user_id, name, type, size, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		d.UserID, d.Name, d.Type, d.Size, d.Status, d.CreatedAt,
	).Scan(&d.ID)
	return wrap("insert database", err)
}

func (s *Store) GetDatabase(ctx context.Context, id int64) (*model.Database, error) {
	d, err := scanDatabase(s.db.QueryRow(ctx, `SELECT `+databaseColumns+` FROM databases WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get database", err)
	}
	return &d, nil
}

func (s *Store) ListDatabases(ctx context.Context, f store.Filter) ([]model.Database, error) {
	rows, err := s.queryAll(ctx, "list databases",
		`SELECT `+databaseColumns+` FROM databases
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY id`, []any{f.UserID})
	if err != nil {
		return nil, err
	}
	dbs, err := collect(rows, scanDatabase)
	if err != nil {
		return nil, fmt.Errorf("scan databases: %w", err)
	}
	return dbs, nil
}

func (s *Store) UpdateDatabase(ctx context.Context, d *model.Database) error {
	return s.execOne(ctx, "update database",
		`UPDATE databases SET name = $2, type = $3, size = $4, status = $5 WHERE id = $1`,
		d.ID, d.Name, d.Type, d.Size, d.Status)
}

func (s *Store) DeleteDatabase(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete database", `DELETE FROM databases WHERE id = $1`, id)
}
