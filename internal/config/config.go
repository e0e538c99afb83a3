package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// S3Config addresses the bucket that receives backup archives. An empty
// Endpoint selects the in-memory archive.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (s S3Config) Enabled() bool {
	return s.Endpoint != ""
}

type Config struct {
	ServiceName       string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	DevMode           bool

	StoreBackend string
	DatabaseURL  string
	DBMaxConns   int
	RedisURL     string

	SessionTTL   time.Duration
	CookieSecure bool
	CORSOrigins  []string

	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int

	StatsInterval       time.Duration
	ScanInterval        time.Duration
	StatsAlertThreshold int

	TOTPIssuer       string
	DefaultPackageID int64
	SecretsKey       string

	TLSCertFile     string
	TLSKeyFile      string
	TLSClientCAFile string

	BackupS3 S3Config
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// YAML file, its keys (the same names as the environment variables) supply
// values the environment leaves unset.
func Load() (*Config, error) {
	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	cfg := &Config{
		ServiceName:       src.get("SERVICE_NAME", "panel-api"),
		HTTPListenAddr:    src.get("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr: src.get("METRICS_LISTEN_ADDR", ""),
		LogLevel:          src.get("LOG_LEVEL", "info"),
		DatabaseURL:       src.get("DATABASE_URL", ""),
		RedisURL:          src.get("REDIS_URL", ""),
		CORSOrigins:       splitList(src.get("CORS_ORIGINS", "http://localhost:5173")),
		TOTPIssuer:        src.get("TOTP_ISSUER", "HostPanel"),
		SecretsKey:        src.get("SECRETS_KEY", ""),
		TLSCertFile:       src.get("TLS_CERT_FILE", ""),
		TLSKeyFile:        src.get("TLS_KEY_FILE", ""),
		TLSClientCAFile:   src.get("TLS_CLIENT_CA_FILE", ""),
		BackupS3: S3Config{
			Endpoint:  src.get("BACKUP_S3_ENDPOINT", ""),
			Bucket:    src.get("BACKUP_S3_BUCKET", ""),
			Region:    src.get("BACKUP_S3_REGION", "us-east-1"),
			AccessKey: src.get("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: src.get("BACKUP_S3_SECRET_KEY", ""),
		},
	}

	defaultBackend := BackendMemory
	if cfg.DatabaseURL != "" {
		defaultBackend = BackendPostgres
	}
	cfg.StoreBackend = src.get("STORE_BACKEND", defaultBackend)

	var err error
	if cfg.DevMode, err = src.bool("DEV_MODE", false); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = src.bool("COOKIE_SECURE", true); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = src.duration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = src.duration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = src.int("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimitMax, err = src.int("AUTH_RATE_LIMIT_MAX", 5); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns, err = src.int("DB_MAX_CONNS", 0); err != nil {
		return nil, err
	}
	if cfg.StatsInterval, err = src.duration("STATS_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ScanInterval, err = src.duration("SCAN_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StatsAlertThreshold, err = src.int("STATS_ALERT_THRESHOLD", 90); err != nil {
		return nil, err
	}
	pkg, err := src.int("DEFAULT_PACKAGE_ID", 1)
	if err != nil {
		return nil, err
	}
	cfg.DefaultPackageID = int64(pkg)

	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, c.StoreBackend)
	}
	if c.HTTPListenAddr == "" {
		missing = append(missing, "HTTP_LISTEN_ADDR")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if c.DBMaxConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RateLimitWindow <= 0 || c.RateLimitMax <= 0 || c.AuthRateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW, RATE_LIMIT_MAX and AUTH_RATE_LIMIT_MAX must be positive")
	}
	if c.StatsInterval <= 0 || c.ScanInterval <= 0 {
		return fmt.Errorf("STATS_INTERVAL and SCAN_INTERVAL must be positive")
	}
	if c.StatsAlertThreshold < 0 || c.StatsAlertThreshold > 100 {
		return fmt.Errorf("STATS_ALERT_THRESHOLD must be between 0 and 100")
	}
	if c.SecretsKey != "" {
		if key, err := hex.DecodeString(c.SecretsKey); err != nil || len(key) != 32 {
			return fmt.Errorf("SECRETS_KEY must be 64 hex characters")
		}
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must both be set")
	}
	if c.BackupS3.Enabled() {
		if c.BackupS3.Bucket == "" || c.BackupS3.AccessKey == "" || c.BackupS3.SecretKey == "" {
			return fmt.Errorf("BACKUP_S3_BUCKET, BACKUP_S3_ACCESS_KEY and BACKUP_S3_SECRET_KEY are required with BACKUP_S3_ENDPOINT")
		}
	}
	return nil
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]string
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func (s source) get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (s source) bool(key string, fallback bool) (bool, error) {
	v := s.get(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func (s source) int(key string, fallback int) (int, error) {
	v := s.get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func (s source) duration(key string, fallback time.Duration) (time.Duration, error) {
	v := s.get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
