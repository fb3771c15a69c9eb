package env

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/localdb"
	"github.com/stockroomlabs/brotherlabel/internal/settings"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

// Env holds service-level configuration. Printer parameters live in the
// settings store / machine registry, not here.
type Env struct {
	ServerPort  int
	DebugMode   bool
	DryRunMode  bool
	DebugOutput bool
}

var Value Env

// LoadEnv reads .env (if present) and the process environment, then layers
// the settings database on top. Must run after localdb.SetupDB.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	Value = Env{
		ServerPort:  envInt("SERVER_PORT", 8080),
		DebugMode:   envBool("DEBUG_MODE", false),
		DryRunMode:  envBool("DRY_RUN_MODE", false),
		DebugOutput: envBool("DEBUG_OUTPUT", false),
	}

	if err := ReloadFromDatabase(); err != nil {
		logger.Warn("Failed to load settings from database, using environment values", zap.Error(err))
	}
}

// ReloadFromDatabase refreshes Value from the settings store. Called after
// settings are changed through the API.
func ReloadFromDatabase() error {
	db := localdb.GetDB()
	if db == nil {
		return nil
	}

	sm := settings.NewSettingsManager(db)

	if v, err := sm.GetSetting("SERVER_PORT"); err == nil && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			Value.ServerPort = port
		}
	}
	if v, err := sm.GetSetting("DRY_RUN_MODE"); err == nil {
		Value.DryRunMode = v == "true"
	}
	if v, err := sm.GetSetting("DEBUG_OUTPUT"); err == nil {
		Value.DebugOutput = v == "true"
	}

	return nil
}

func envBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return fallback
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
