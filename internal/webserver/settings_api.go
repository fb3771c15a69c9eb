package webserver

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/env"
	"github.com/stockroomlabs/brotherlabel/internal/localdb"
	"github.com/stockroomlabs/brotherlabel/internal/settings"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

func dbOrError(w http.ResponseWriter) *sql.DB {
	db := localdb.GetDB()
	if db == nil {
		http.Error(w, "Database not initialized", http.StatusInternalServerError)
	}
	return db
}

// handleSettings reads (GET) or updates (PUT) the global settings.
func handleSettings(w http.ResponseWriter, r *http.Request) {
	db := dbOrError(w)
	if db == nil {
		return
	}
	sm := settings.NewSettingsManager(db)

	switch r.Method {
	case http.MethodGet:
		all, err := sm.GetAllSettings()
		if err != nil {
			logger.Error("Failed to load settings", zap.Error(err))
			http.Error(w, "Failed to load settings", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(all)

	case http.MethodPut:
		var updates map[string]string
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		// Validate everything before writing anything
		for key, value := range updates {
			if _, known := settings.DefaultSettings[key]; !known {
				http.Error(w, "Unknown setting key: "+key, http.StatusBadRequest)
				return
			}
			if err := settings.ValidateSetting(key, value); err != nil {
				http.Error(w, key+": "+err.Error(), http.StatusBadRequest)
				return
			}
		}

		for key, value := range updates {
			if err := sm.SetSetting(key, value); err != nil {
				logger.Error("Failed to save setting", zap.String("key", key), zap.Error(err))
				http.Error(w, "Failed to save setting "+key, http.StatusInternalServerError)
				return
			}
		}

		if err := env.ReloadFromDatabase(); err != nil {
			logger.Warn("Failed to reload env values after settings update", zap.Error(err))
		}

		logger.Info("Settings updated", zap.Int("count", len(updates)))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "updated": len(updates)})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
