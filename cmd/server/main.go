// Command server runs the GrooveRay station sync service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stwalsh4118/grooveray/internal/config"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// the logger is not configured yet
		logger.Init("info", false)
		return err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)
	logger.Log.Info().Msg("GrooveRay station service starting")

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Log.Warn().Msg("Using the default JWT secret; set GROOVERAY_AUTH_JWTSECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Driver == config.DriverSQLite {
		if err := ensureDataDir(cfg.Database.Path); err != nil {
			return err
		}
	}

	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		return err
	}
	if err := db.RunMigrations(sqlDB, database.Driver, db.MigrationsPath(cfg.Database.MigrationsPath, database.Driver)); err != nil {
		return err
	}

	srv := server.New(cfg, database)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
