package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "SERVICE_NAME", "HTTP_LISTEN_ADDR", "METRICS_LISTEN_ADDR", "LOG_LEVEL", "DEV_MODE",
	"STORE_BACKEND", "DATABASE_URL", "REDIS_URL", "SESSION_TTL", "COOKIE_SECURE", "CORS_ORIGINS",
	"RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX", "AUTH_RATE_LIMIT_MAX", "STATS_INTERVAL", "SCAN_INTERVAL",
	"STATS_ALERT_THRESHOLD", "TOTP_ISSUER", "DEFAULT_PACKAGE_ID", "SECRETS_KEY",
	"TLS_CERT_FILE", "TLS_KEY_FILE", "TLS_CLIENT_CA_FILE",
	"BACKUP_S3_ENDPOINT", "BACKUP_S3_BUCKET", "BACKUP_S3_REGION", "BACKUP_S3_ACCESS_KEY", "BACKUP_S3_SECRET_KEY",
}

// clearEnv blanks every key Load reads; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 5, cfg.AuthRateLimitMax)
	assert.Equal(t, 5*time.Minute, cfg.StatsInterval)
	assert.Equal(t, 6*time.Hour, cfg.ScanInterval)
	assert.Equal(t, 90, cfg.StatsAlertThreshold)
	assert.Equal(t, "HostPanel", cfg.TOTPIssuer)
	assert.Equal(t, int64(1), cfg.DefaultPackageID)
	assert.False(t, cfg.BackupS3.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/panel")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
}

func TestLoad_AllEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_LISTEN_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DATABASE_URL", "postgres://db/panel")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_MAX", "20")
	t.Setenv("STATS_INTERVAL", "30s")
	t.Setenv("DEFAULT_PACKAGE_ID", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 20, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
	assert.Equal(t, int64(7), cfg.DefaultPackageID)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SESSION_TTL", "forever"},
		{"RATE_LIMIT_MAX", "many"},
		{"DEV_MODE", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ConfigFileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"HTTP_LISTEN_ADDR: \":7000\"",
		"log_level: warn",
		"RATE_LIMIT_MAX: 40",
		"COOKIE_SECURE: false",
	}, "\n")), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_LISTEN_ADDR", ":7100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.HTTPListenAddr, "environment wins over the file")
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 40, cfg.RateLimitMax)
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func validConfig() *Config {
	return &Config{
		HTTPListenAddr:      ":8080",
		StoreBackend:        BackendMemory,
		SessionTTL:          time.Hour,
		RateLimitWindow:     time.Minute,
		RateLimitMax:        10,
		AuthRateLimitMax:    2,
		StatsInterval:       time.Minute,
		ScanInterval:        time.Hour,
		StatsAlertThreshold: 90,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"postgres without url", func(c *Config) { c.StoreBackend = BackendPostgres }, "DATABASE_URL"},
		{"unknown backend", func(c *Config) { c.StoreBackend = "sqlite" }, "STORE_BACKEND"},
		{"zero rate limit", func(c *Config) { c.RateLimitMax = 0 }, "RATE_LIMIT_MAX"},
		{"zero interval", func(c *Config) { c.ScanInterval = 0 }, "SCAN_INTERVAL"},
		{"threshold out of range", func(c *Config) { c.StatsAlertThreshold = 150 }, "STATS_ALERT_THRESHOLD"},
		{"short secrets key", func(c *Config) { c.SecretsKey = "abcd" }, "SECRETS_KEY"},
		{"valid secrets key", func(c *Config) { c.SecretsKey = strings.Repeat("ab", 32) }, ""},
		{"cert without key", func(c *Config) { c.TLSCertFile = "/tmp/cert.pem" }, "TLS_CERT_FILE and TLS_KEY_FILE"},
		{"partial s3", func(c *Config) { c.BackupS3.Endpoint = "http://minio:9000" }, "BACKUP_S3_BUCKET"},
		{"full s3", func(c *Config) {
			c.BackupS3 = S3Config{Endpoint: "http://minio:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
