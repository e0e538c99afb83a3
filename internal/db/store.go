package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/config"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
	"github.com/edvin/hostpanel/internal/store/postgres"
)

// Backend is the opened panel store. Pool is nil for the memory backend.
type Backend struct {
	Store store.Store
	Pool  *pgxpool.Pool
}

func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// OpenStore opens the backend selected by STORE_BACKEND. The postgres
// backend is migrated to the latest schema first.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Backend, error) {
	if cfg.StoreBackend != config.BackendPostgres {
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return &Backend{Store: store.NewMemory(platform.NewSequence())}, nil
	}

	logger.Info().Msg("running database migrations")
	if err := RunMigrations(cfg.DatabaseURL, logger); err != nil {
		return nil, err
	}
	pool, err := NewPool(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns), logger)
	if err != nil {
		return nil, err
	}
	return &Backend{Store: postgres.New(pool), Pool: pool}, nil
}
