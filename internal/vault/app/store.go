package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/internal/vault/store/drivers/mongo"
	"github.com/aussiebroadwan/teamvault/internal/vault/store/drivers/sqlite"
)

// OpenStore connects the configured driver and applies migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.StoreDriver {
	case DriverMongo:
		st, err = mongo.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.DatabaseFile)
		st, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := st.ApplyMigrations(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.StoreDriver)
	return st, nil
}
