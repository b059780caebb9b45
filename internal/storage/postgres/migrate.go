package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded schema migrations with goose.
type Migrator struct {
	dsn    string
	logger *slog.Logger
}

// NewMigrator returns a Migrator for the database at dsn.
func NewMigrator(dsn string, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{dsn: dsn, logger: logger}
}

// Up applies pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.withDB(ctx, func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		m.logger.Info("Applying migrations")
		if err := goose.UpContext(runCtx, db, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		m.logger.Info("Migrations applied")
		return nil
	})
}

// Status logs applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) error {
	return m.withDB(ctx, func(db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Down rolls back the latest migration, or down to target when it is positive.
func (m *Migrator) Down(ctx context.Context, target int64) error {
	return m.withDB(ctx, func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if target > 0 {
			m.logger.Info("Rolling back migrations", "target", target)
			if err := goose.DownToContext(runCtx, db, migrationsDir, target); err != nil {
				return fmt.Errorf("rollback to version %d: %w", target, err)
			}
			return nil
		}

		m.logger.Info("Rolling back latest migration")
		if err := goose.DownContext(runCtx, db, migrationsDir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

func (m *Migrator) withDB(ctx context.Context, fn func(*sql.DB) error) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}

	return fn(db)
}
