package app

import (
	"context"
	"fmt"

	"github.com/riskibarqy/matchthread-sync/internal/config"
	"github.com/riskibarqy/matchthread-sync/internal/domain/syncstate"
	"github.com/riskibarqy/matchthread-sync/internal/infrastructure/repository/file"
	"github.com/riskibarqy/matchthread-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchthread-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

// stateStores bundles where sync and limiter state live for one process.
type stateStores struct {
	syncStates syncstate.Repository
	limiter    resilience.StateStore
	close      func() error
}

func openStateStores(ctx context.Context, cfg config.Config, logger *logging.Logger) (stateStores, error) {
	switch cfg.StateBackend {
	case config.StateBackendPostgres:
		db, dsn, err := openPostgres(ctx, cfg)
		if err != nil {
			return stateStores{}, err
		}
		logger.Info("state backend ready", "backend", cfg.StateBackend, "db_name", dsn.name)
		return stateStores{
			syncStates: postgres.NewSyncStateRepository(db),
			limiter:    postgres.NewLimiterStateRepository(db, postgres.DefaultLimiterStateID),
			close:      db.Close,
		}, nil
	case config.StateBackendMemory:
		logger.Warn("state backend is in-memory, nothing survives this run", "backend", cfg.StateBackend)
		return stateStores{
			syncStates: memory.NewSyncStateRepository(),
			limiter:    memory.NewLimiterStateStore(),
			close:      func() error { return nil },
		}, nil
	default:
		store, err := file.NewStore(cfg.StateDir)
		if err != nil {
			return stateStores{}, fmt.Errorf("open file state store: %w", err)
		}
		logger.Info("state backend ready", "backend", cfg.StateBackend, "dir", cfg.StateDir)
		return stateStores{
			syncStates: store,
			limiter:    store,
			close:      func() error { return nil },
		}, nil
	}
}
