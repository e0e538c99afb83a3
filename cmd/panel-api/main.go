package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/hostpanel/internal/api"
	"github.com/edvin/hostpanel/internal/archive"
	"github.com/edvin/hostpanel/internal/config"
	"github.com/edvin/hostpanel/internal/core"
	"github.com/edvin/hostpanel/internal/crypto"
	"github.com/edvin/hostpanel/internal/db"
	"github.com/edvin/hostpanel/internal/jobs"
	"github.com/edvin/hostpanel/internal/logging"
	"github.com/edvin/hostpanel/internal/metrics"
	"github.com/edvin/hostpanel/internal/notify"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/session"
)

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("panel API failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	clock := platform.SystemClock{}

	backend, err := db.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close()
	if backend.Pool != nil {
		if err := metrics.RegisterPool(prometheus.DefaultRegisterer, backend.Pool); err != nil {
			return fmt.Errorf("register pool metrics: %w", err)
		}
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		sessions = session.NewRedis(client, clock, cfg.SessionTTL)
		logger.Info().Msg("sessions stored in redis")
	} else {
		sessions = session.NewMemory(clock, cfg.SessionTTL)
	}

	checks := map[string]api.Pinger{"store": backend.Store}
	var archiver core.Archiver
	if cfg.BackupS3.Enabled() {
		s3 := archive.NewS3(cfg.BackupS3, logger)
		archiver = s3
		checks["backup_storage"] = s3
		logger.Info().Str("endpoint", cfg.BackupS3.Endpoint).Str("bucket", cfg.BackupS3.Bucket).Msg("backups stored in S3")
	} else {
		archiver = archive.NewMemory()
		logger.Warn().Msg("no backup storage configured; backups are kept in memory")
	}

	secretsKey, err := secretsKey(cfg, logger)
	if err != nil {
		return err
	}

	hub := notify.NewHub(logger, cfg.CORSOrigins)
	services := core.NewServices(core.Deps{
		Store:               backend.Store,
		Sessions:            sessions,
		Clock:               clock,
		Logger:              logger,
		Publisher:           hub,
		Archiver:            archiver,
		SecretsKey:          secretsKey,
		TOTPIssuer:          cfg.TOTPIssuer,
		DefaultPackageID:    cfg.DefaultPackageID,
		StatsAlertThreshold: cfg.StatsAlertThreshold,
	})

	srv := api.NewServer(logger, api.Options{
		Config:   cfg,
		Services: services,
		Stream:   hub,
		Checks:   checks,
	})
	defer srv.Close()

	tlsConfig, err := cfg.ServerTLS()
	if err != nil {
		return fmt.Errorf("configure TLS: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           srv,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	runner := jobs.New(jobs.Config{
		StatsInterval: cfg.StatsInterval,
		ScanInterval:  cfg.ScanInterval,
	}, services.ServerStats, services.SecurityScan, clock, logger, nil)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Bool("tls", cfg.TLSEnabled()).Msg("starting panel API server")
		var err error
		if cfg.TLSEnabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if cfg.MetricsListenAddr != "" {
		metricsServer := metrics.NewServer(cfg.MetricsListenAddr)
		g.Go(func() error {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return shutdown(metricsServer)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")
		return shutdown(httpServer)
	})

	return g.Wait()
}

func shutdown(s *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// secretsKey returns the configured sealing key, or a random one for this
// process. Private keys sealed with a random key cannot be read after a
// restart.
func secretsKey(cfg *config.Config, logger zerolog.Logger) ([]byte, error) {
	if cfg.SecretsKey != "" {
		key, err := crypto.ParseKey(cfg.SecretsKey)
		if err != nil {
			return nil, fmt.Errorf("parse SECRETS_KEY: %w", err)
		}
		return key, nil
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secrets key: %w", err)
	}
	logger.Warn().Msg("SECRETS_KEY is not set; SSL private keys will be unreadable after restart")
	return key, nil
}
