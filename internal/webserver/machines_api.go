package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/machine"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

type machineRequest struct {
	Name     string            `json:"name"`
	Settings map[string]string `json:"settings"`
}

// handleMachines lists (GET) or registers (POST) machines.
func handleMachines(w http.ResponseWriter, r *http.Request) {
	db := dbOrError(w)
	if db == nil {
		return
	}
	registry := machine.NewRegistry(db)

	switch r.Method {
	case http.MethodGet:
		machines, err := registry.List()
		if err != nil {
			logger.Error("Failed to list machines", zap.Error(err))
			http.Error(w, "Failed to list machines", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"machines": machines,
			"count":    len(machines),
		})

	case http.MethodPost:
		var req machineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		m, err := registry.Create(req.Name, req.Settings)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(m)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMachineByID reads, updates or removes a single machine.
func handleMachineByID(w http.ResponseWriter, r *http.Request) {
	db := dbOrError(w)
	if db == nil {
		return
	}
	registry := machine.NewRegistry(db)
	id := mux.Vars(r)["id"]

	switch r.Method {
	case http.MethodGet:
		m, err := registry.Get(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m)

	case http.MethodPut:
		var req machineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		m, err := registry.Update(id, req.Name, req.Settings)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m)

	case http.MethodDelete:
		if err := registry.Delete(id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		logger.Info("Machine removed", zap.String("id", id))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
