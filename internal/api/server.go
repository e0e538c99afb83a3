package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/api/handler"
	mw "github.com/edvin/hostpanel/internal/api/middleware"
	"github.com/edvin/hostpanel/internal/config"
	"github.com/edvin/hostpanel/internal/core"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the collaborators of the HTTP server. Stream and Checks are
// optional.
type Options struct {
	Config   *config.Config
	Services *core.Services
	Stream   handler.Streamer
	Checks   map[string]Pinger
}

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	cfg         *config.Config
	services    *core.Services
	stream      handler.Streamer
	checks      map[string]Pinger
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, opts Options) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		cfg:         opts.Config,
		services:    opts.Services,
		stream:      opts.Stream,
		checks:      opts.Checks,
		auditLogger: mw.NewAuditLogger(opts.Services.AuditLog, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	general := mw.NewIPRateLimiter("general", s.cfg.RateLimitMax, s.cfg.RateLimitWindow)
	authLimit := mw.NewIPRateLimiter("auth", s.cfg.AuthRateLimitMax, s.cfg.RateLimitWindow)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(general.Middleware)
		r.Use(mw.Authenticate(s.services.Auth, s.services.APIKey))
		r.Use(s.auditLogger.Middleware)

		auth := handler.NewAuth(s.services, s.cfg.CookieSecure)
		user := handler.NewUser(s.services)
		pkg := handler.NewPackage(s.services)
		domain := handler.NewDomain(s.services)
		dnsRecord := handler.NewDnsRecord(s.services)
		cert := handler.NewSslCertificate(s.services)
		emailAccount := handler.NewEmailAccount(s.services)
		database := handler.NewDatabase(s.services)
		file := handler.NewFile(s.services)
		stats := handler.NewServerStats(s.services)
		scan := handler.NewSecurityScan(s.services)
		notification := handler.NewNotification(s.services, s.stream)
		backup := handler.NewBackup(s.services)
		apiKey := handler.NewAPIKey(s.services)
		widget := handler.NewWidget(s.services)
		dashboard := handler.NewDashboard(s.services)
		webmail := handler.NewWebmail(s.services)
		codeProject := handler.NewCodeProject(s.services)
		kb := handler.NewKnowledgeBase(s.services)
		audit := handler.NewAuditLog(s.services)

		// Public auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(authLimit.Middleware)
			r.Post("/auth/register", auth.Register)
			r.Post("/auth/login", auth.Login)
		})
		r.Post("/auth/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)

			r.Get("/auth/me", auth.Me)
			r.Post("/auth/2fa/setup", auth.SetupTwoFactor)
			r.Post("/auth/2fa/verify", auth.VerifyTwoFactor)
			r.Post("/auth/2fa/disable", auth.DisableTwoFactor)

			// Users
			r.Get("/users/{id}", user.Get)
			r.Put("/users/{id}", user.Update)

			// Hosting packages
			r.Get("/hosting-packages", pkg.List)
			r.Get("/hosting-packages/{id}", pkg.Get)

			// Domains
			r.Get("/domains", domain.List)
			r.Post("/domains", domain.Create)
			r.Get("/domains/user/{userId}", domain.ListByUser)
			r.Get("/domains/{id}", domain.Get)
			r.Put("/domains/{id}", domain.Update)
			r.Delete("/domains/{id}", domain.Delete)
			r.Get("/domains/{id}/zone", domain.Zone)

			// DNS records
			r.Get("/dns-records", dnsRecord.List)
			r.Post("/dns-records", dnsRecord.Create)
			r.Get("/dns-records/domain/{domainId}", dnsRecord.ListByDomain)
			r.Get("/dns-records/record/{id}", dnsRecord.Get)
			r.Get("/dns-records/{domainId}", dnsRecord.ListByDomain)
			r.Put("/dns-records/{id}", dnsRecord.Update)
			r.Delete("/dns-records/{id}", dnsRecord.Delete)

			// SSL certificates
			r.Get("/ssl-certificates", cert.List)
			r.Post("/ssl-certificates", cert.Create)
			r.Get("/ssl-certificates/domain/{domainId}", cert.ListByDomain)
			r.Get("/ssl-certificates/{id}", cert.Get)
			r.Put("/ssl-certificates/{id}", cert.Update)
			r.Delete("/ssl-certificates/{id}", cert.Delete)

			// Email accounts
			r.Get("/email-accounts", emailAccount.List)
			r.Post("/email-accounts", emailAccount.Create)
			r.Get("/email-accounts/user/{userId}", emailAccount.ListByUser)
			r.Get("/email-accounts/{id}", emailAccount.Get)
			r.Put("/email-accounts/{id}", emailAccount.Update)
			r.Delete("/email-accounts/{id}", emailAccount.Delete)

			// Databases
			r.Get("/databases", database.List)
			r.Post("/databases", database.Create)
			r.Get("/databases/user/{userId}", database.ListByUser)
			r.Get("/databases/{id}", database.Get)
			r.Put("/databases/{id}", database.Update)
			r.Delete("/databases/{id}", database.Delete)

			// Files
			r.Get("/files", file.List)
			r.Post("/files", file.Create)
			r.Get("/files/user/{userId}", file.ListByUser)
			r.Post("/files/user/{userId}/upload", file.Upload)
			r.Get("/files/{id}", file.Get)
			r.Put("/files/{id}", file.Update)
			r.Delete("/files/{id}", file.Delete)
			r.Get("/files/{id}/versions", file.Versions)

			// Telemetry
			r.Get("/server-stats", stats.Latest)
			r.Get("/server-stats/history", stats.History)
			r.Get("/security/scans", scan.List)
			r.Get("/security/scans/latest", scan.Latest)

			// Notifications
			r.Get("/notifications", notification.List)
			r.Get("/notifications/stream", notification.Stream)
			r.Post("/notifications/read-all", notification.MarkAllRead)
			r.Get("/notifications/{id}", notification.Get)
			r.Put("/notifications/{id}", notification.Update)
			r.Put("/notifications/{id}/read", notification.MarkRead)
			r.Delete("/notifications/{id}", notification.Delete)

			// Backups
			r.Get("/backups", backup.List)
			r.Post("/backups", backup.Create)
			r.Get("/backups/{id}", backup.Get)
			r.Put("/backups/{id}", backup.Update)
			r.Delete("/backups/{id}", backup.Delete)
			r.Get("/backups/{id}/download", backup.Download)

			// API keys
			r.Get("/api-keys", apiKey.List)
			r.Post("/api-keys", apiKey.Create)
			r.Get("/api-keys/{id}", apiKey.Get)
			r.Put("/api-keys/{id}", apiKey.Update)
			r.Delete("/api-keys/{id}", apiKey.Delete)

			// Dashboard
			r.Get("/dashboard", dashboard.Summary)
			r.Get("/dashboard-widgets", widget.List)
			r.Post("/dashboard-widgets", widget.Create)
			r.Get("/dashboard-widgets/{id}", widget.Get)
			r.Put("/dashboard-widgets/{id}", widget.Update)
			r.Delete("/dashboard-widgets/{id}", widget.Delete)

			// Webmail
			r.Get("/webmail/settings", webmail.Get)
			r.Put("/webmail/settings", webmail.Update)

			// Code projects
			r.Get("/code-projects", codeProject.List)
			r.Post("/code-projects", codeProject.Create)
			r.Get("/code-projects/{id}", codeProject.Get)
			r.Put("/code-projects/{id}", codeProject.Update)
			r.Delete("/code-projects/{id}", codeProject.Delete)

			// Knowledge base
			r.Get("/knowledge-base", kb.List)
			r.Get("/knowledge-base/{id}", kb.Get)
		})

		// Admin-only endpoints
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)

			r.Get("/users", user.List)
			r.Post("/users", user.Create)
			r.Get("/users/count", user.Count)
			r.Delete("/users/{id}", user.Delete)

			r.Post("/hosting-packages", pkg.Create)
			r.Put("/hosting-packages/{id}", pkg.Update)
			r.Delete("/hosting-packages/{id}", pkg.Delete)

			r.Post("/server-stats", stats.Create)
			r.Post("/security/scans", scan.Create)
			r.Post("/notifications", notification.Create)

			r.Post("/knowledge-base", kb.Create)
			r.Put("/knowledge-base/{id}", kb.Update)
			r.Delete("/knowledge-base/{id}", kb.Delete)

			r.Get("/audit-logs", audit.List)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
		} else {
			checks[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close flushes pending audit entries. Call it after the HTTP server has
// stopped accepting requests.
func (s *Server) Close() {
	s.auditLogger.Close()
}
