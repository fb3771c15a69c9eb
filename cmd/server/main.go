package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/env"
	"github.com/stockroomlabs/brotherlabel/internal/localdb"
	"github.com/stockroomlabs/brotherlabel/internal/settings"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
	"github.com/stockroomlabs/brotherlabel/internal/shared/paths"
	"github.com/stockroomlabs/brotherlabel/internal/version"
	"github.com/stockroomlabs/brotherlabel/internal/webserver"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting brother label plugin", zap.String("version", version.String()))

	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to ensure data directories", zap.Error(err))
	}

	db, err := localdb.SetupDB(paths.GetDBPath())
	if err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}

	sm := settings.NewSettingsManager(db)
	if err := sm.MigrateFromEnv(); err != nil {
		logger.Warn("Failed to migrate settings from environment", zap.Error(err))
	}
	if err := sm.InitializeDefaultSettings(); err != nil {
		logger.Fatal("Failed to initialize default settings", zap.Error(err))
	}

	// env.LoadEnv must run after DB initialization.
	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	if featureStatus, err := sm.CheckFeatureStatus(); err == nil {
		if !featureStatus.DestinationConfigured {
			logger.Warn("No printer destination configured",
				zap.Strings("missing", featureStatus.MissingSettings))
		}
		for _, warning := range featureStatus.Warnings {
			logger.Warn(warning)
		}
	}

	if err := webserver.StartWebServer(env.Value.ServerPort); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	webserver.Shutdown()
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
}
