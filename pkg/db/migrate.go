package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/pkg/logger"
)

// RunMigrations applies all pending migrations from the given directory.
// golang-migrate expects the pgx URL scheme rewritten to postgres://.
func RunMigrations(databaseURL, migrationsPath string) error {
	url := strings.Replace(databaseURL, "pgx5://", "postgres://", 1)

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), url)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Error("failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Error("failed to close migration database connection", zap.Error(dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", version)
	}

	logger.Info(fmt.Sprintf("migrations applied successfully, current version: %d", version))
	return nil
}

// MigrateDown rolls back the most recent migration
func MigrateDown(databaseURL, migrationsPath string) error {
	url := strings.Replace(databaseURL, "pgx5://", "postgres://", 1)

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), url)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	logger.Info("rolled back one migration")
	return nil
}
