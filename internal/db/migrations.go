package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stwalsh4118/grooveray/internal/config"
)

// RunMigrations applies the migrations found at migrationsPath
// (e.g. "file://./migrations/sqlite") using the migrate driver matching
// driverName. No pending migrations is not an error.
//
// Example usage:
//
//	sqlDB, _ := database.GetSQLDB()
//	if err := RunMigrations(sqlDB, database.Driver, "file://./migrations/sqlite"); err != nil {
//	    return fmt.Errorf("migration failed: %w", err)
//	}
func RunMigrations(db *sql.DB, driverName, migrationsPath string) error {
	var (
		driver database.Driver
		name   string
		err    error
	)
	switch driverName {
	case config.DriverSQLite, "":
		name = "sqlite3"
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case config.DriverPostgres:
		name = "postgres"
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported migration driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, name, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationsPath returns the per-driver migrations directory below root,
// e.g. "file://./migrations" becomes "file://./migrations/sqlite".
func MigrationsPath(root, driverName string) string {
	if driverName == "" {
		driverName = config.DriverSQLite
	}
	return root + "/" + driverName
}
