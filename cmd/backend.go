package cmd

import (
	"context"
	"errors"
	"events-api/config"
	"events-api/internal/store"
	"events-api/utils"
	"fmt"
	"log/slog"

	_ "events-api/migrations"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// backend is the configured event store plus the connections it owns.
type backend struct {
	name    string
	store   store.EventStore
	redis   *redis.Client
	closers []func() error
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{name: cfg.Backend}

	if cfg.UsesRedis() {
		client, err := utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b.redis = client
		b.closers = append(b.closers, client.Close)
	}

	var err error
	switch cfg.Backend {
	case config.BackendMemory:
		b.store = store.NewMemoryStore()
	case config.BackendRelational:
		err = b.openRelational(ctx, cfg.DatabaseURL)
	case config.BackendDocument:
		b.store = store.NewDocumentStore(b.redis, cfg.DocumentDatabase)
	case config.BackendCollection:
		err = b.openCollection(cfg.PBDataDir)
	default:
		err = fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
	if err != nil {
		b.Close()
		return nil, err
	}

	if cfg.Backend != config.BackendMemory {
		breaker := utils.NewCircuitBreaker(cfg.Backend,
			utils.WithMaxRequests(cfg.BreakerMaxRequests),
			utils.WithInterval(cfg.BreakerInterval),
			utils.WithTimeout(cfg.BreakerTimeout),
			utils.WithFailureRatio(cfg.BreakerFailureRatio),
		)
		b.store = store.NewGuardedStore(b.store, breaker)
	}

	slog.Info("Event store ready", "backend", cfg.Backend)
	return b, nil
}

func (b *backend) openRelational(ctx context.Context, databaseURL string) error {
	rel, err := store.OpenRelationalStore(databaseURL)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, rel.Close)

	if err := rel.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure events table: %w", err)
	}
	b.store = rel
	return nil
}

func (b *backend) openCollection(dataDir string) error {
	app := core.NewBaseApp(core.BaseAppConfig{DataDir: dataDir})
	if err := app.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrap pocketbase: %w", err)
	}
	b.closers = append(b.closers, app.ResetBootstrapState)

	if err := app.RunAllMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	s, err := store.NewCollectionStore(app)
	if err != nil {
		return err
	}
	b.store = s
	return nil
}

// Close releases connections in reverse order of opening.
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
