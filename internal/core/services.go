package core

import "github.com/edvin/hostpanel/internal/platform"

type Services struct {
	Auth           *AuthService
	User           *UserService
	Package        *PackageService
	Domain         *DomainService
	DnsRecord      *DnsRecordService
	SslCertificate *SslCertificateService
	EmailAccount   *EmailAccountService
	Database       *DatabaseService
	File           *FileService
	ServerStats    *ServerStatsService
	Notification   *NotificationService
	Backup         *BackupService
	APIKey         *APIKeyService
	Widget         *WidgetService
	SecurityScan   *SecurityScanService
	Webmail        *WebmailService
	CodeProject    *CodeProjectService
	KnowledgeBase  *KnowledgeBaseService
	AuditLog       *AuditLogService
	Dashboard      *DashboardService
}

func NewServices(d Deps) *Services {
	if d.Clock == nil {
		d.Clock = platform.SystemClock{}
	}
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.TOTPIssuer == "" {
		d.TOTPIssuer = "HostPanel"
	}
	notifications := NewNotificationService(d)
	return &Services{
		Auth:           NewAuthService(d),
		User:           NewUserService(d),
		Package:        NewPackageService(d),
		Domain:         NewDomainService(d),
		DnsRecord:      NewDnsRecordService(d),
		SslCertificate: NewSslCertificateService(d),
		EmailAccount:   NewEmailAccountService(d),
		Database:       NewDatabaseService(d),
		File:           NewFileService(d),
		ServerStats:    NewServerStatsService(d, notifications),
		Notification:   notifications,
		Backup:         NewBackupService(d),
		APIKey:         NewAPIKeyService(d),
		Widget:         NewWidgetService(d),
		SecurityScan:   NewSecurityScanService(d, notifications),
		Webmail:        NewWebmailService(d),
		CodeProject:    NewCodeProjectService(d),
		KnowledgeBase:  NewKnowledgeBaseService(d),
		AuditLog:       NewAuditLogService(d),
		Dashboard:      NewDashboardService(d),
	}
}
