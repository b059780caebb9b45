package commands

import (
	"context"
	"fmt"

	"github.com/mmynk/stepsquad/internal/config"
	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage"
	"github.com/mmynk/stepsquad/internal/storage/postgres"
	"github.com/mmynk/stepsquad/internal/storage/sqlite"
)

// backend is what both storage drivers provide beyond storage.Store.
type backend interface {
	storage.Store
	storage.UserDirectory
	CreateUser(ctx context.Context, user *models.User) error
	RecordSteps(ctx context.Context, entry models.StepEntry) error
}

var (
	_ backend = (*sqlite.Store)(nil)
	_ backend = (*postgres.Store)(nil)
)

// openStore opens the configured driver. With migrate set, the postgres
// schema is brought up to date first; SQLite always migrates on open.
func (c *cli) openStore(ctx context.Context, migrate bool) (backend, error) {
	switch c.cfg.StoreDriver {
	case config.DriverPostgres:
		if migrate {
			if err := postgres.NewMigrator(c.cfg.DatabaseURL, c.logger).Up(ctx); err != nil {
				return nil, err
			}
		}
		store, err := postgres.New(ctx, c.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.logger.Info("Storage initialized", "driver", config.DriverPostgres)
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.New(c.cfg.DBPath)
		if err != nil {
			return nil, err
		}
		c.logger.Info("Storage initialized", "driver", config.DriverSQLite, "database", c.cfg.DBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.cfg.StoreDriver)
	}
}
