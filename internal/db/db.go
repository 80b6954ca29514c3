// Package db provides database connection management and repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stwalsh4118/grooveray/internal/config"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute

	connectInitialInterval = 250 * time.Millisecond
	connectMaxInterval     = 5 * time.Second
)

// DB wraps a GORM database connection
type DB struct {
	*gorm.DB
	Driver string
}

// New opens a SQLite database at dbPath with the default options.
// Example: "./data/grooveray.db"
func New(dbPath string) (*DB, error) {
	return Open(config.DatabaseConfig{
		Driver:            config.DriverSQLite,
		Path:              dbPath,
		EnableWAL:         true,
		BusyTimeout:       5 * time.Second,
		ConnectionTimeout: 5 * time.Second,
	})
}

// Open creates a new database connection for the configured driver and
// verifies it with a ping.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(cfg))
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 newGormLogger(),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", MapGormError(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", MapGormError(err))
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}
	return &DB{DB: gormDB, Driver: driver}, nil
}

// Connect opens the database, retrying with exponential backoff until it
// succeeds, the context is cancelled, or ConnectMaxElapsed passes.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(connectInitialInterval),
		backoff.WithMaxInterval(connectMaxInterval),
		backoff.WithMaxElapsedTime(cfg.ConnectMaxElapsed),
	)

	var database *DB
	err := backoff.RetryNotify(func() error {
		d, err := Open(cfg)
		if err != nil {
			return err
		}
		database = d
		return nil
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		logger.Log.Warn().
			Err(err).
			Str("driver", cfg.Driver).
			Dur("retry_in", next).
			Msg("Database not reachable, retrying")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

func sqliteDSN(cfg config.DatabaseConfig) string {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_txlock=immediate", cfg.Path)
	if cfg.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}
	if cfg.BusyTimeout > 0 {
		dsn += fmt.Sprintf("&_busy_timeout=%d", cfg.BusyTimeout.Milliseconds())
	}
	return dsn
}

// Health checks database connectivity
func (db *DB) Health(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return MapGormError(sqlDB.PingContext(ctx))
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetSQLDB returns the underlying sql.DB for migrations
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}
