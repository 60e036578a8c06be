package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/cart/internal/health"
	"github.com/vladislavdragonenkov/cart/internal/storage/memory"
	"github.com/vladislavdragonenkov/cart/internal/storage/postgres"
)

// runtimeDependencies содержит хранилища, выбранные по cfg.StorageDriver.
type runtimeDependencies struct {
	repo            domain.CartRepository
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository
	storageChecker  healthcheck.Checker
	closeFn         func() error
}

// initRuntimeDependencies создаёт хранилища для выбранного драйвера.
// Для postgres при cfg.PostgresAutoMigrate применяются миграции схемы.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		repo := memory.NewCartRepository()
		return runtimeDependencies{
			repo:            repo,
			outboxRepo:      memory.NewOutboxRepository(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
			storageChecker:  healthcheck.NewStorageChecker(repo),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return runtimeDependencies{}, fmt.Errorf("postgres storage driver requires a DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return runtimeDependencies{}, fmt.Errorf("open postgres: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres миграции применены")
		}

		repo := postgres.NewCartRepository(store)
		return runtimeDependencies{
			repo:            repo,
			outboxRepo:      postgres.NewOutboxRepository(store),
			idempotencyRepo: postgres.NewIdempotencyRepository(store),
			storageChecker:  healthcheck.NewStorageChecker(repo),
			closeFn:         store.Close,
		}, nil

	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
