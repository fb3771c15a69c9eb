package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/printer"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
	"github.com/stockroomlabs/brotherlabel/internal/status"
	"github.com/stockroomlabs/brotherlabel/internal/version"
)

var (
	httpServer *http.Server

	// printDriver is replaceable in tests.
	printDriver = printer.NewDriver()
)

// corsMiddleware adds CORS headers so the host application's frontend can
// call the plugin from another origin.
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

// NewRouter builds the plugin's HTTP API.
func NewRouter() *mux.Router {
	r := mux.NewRouter()

	// Print endpoints
	r.HandleFunc("/api/print", corsMiddleware(handlePrint)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/printer/test-print", corsMiddleware(handlePrinterTestPrint)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/printer/test", corsMiddleware(handlePrinterTest)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/printer/test/ws", handlePrinterTestWS).Methods(http.MethodGet)
	r.HandleFunc("/api/printer/status", corsMiddleware(handlePrinterStatus)).Methods(http.MethodGet, http.MethodOptions)

	// Catalog endpoints
	r.HandleFunc("/api/media", corsMiddleware(handleMediaChoices)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/models", corsMiddleware(handleModelChoices)).Methods(http.MethodGet, http.MethodOptions)

	// Settings endpoints
	r.HandleFunc("/api/settings", corsMiddleware(handleSettings)).Methods(http.MethodGet, http.MethodPut, http.MethodOptions)
	r.HandleFunc("/api/settings/status", corsMiddleware(handleSettingsStatus)).Methods(http.MethodGet, http.MethodOptions)

	// Machine registry endpoints
	r.HandleFunc("/api/machines", corsMiddleware(handleMachines)).Methods(http.MethodGet, http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/machines/{id}", corsMiddleware(handleMachineByID)).Methods(http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions)

	// Service status
	r.HandleFunc("/status", handleStatus).Methods(http.MethodGet)

	return r
}

// StartWebServer starts the plugin API and returns once it is listening.
func StartWebServer(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting web server", zap.String("address", addr))

	httpServer = &http.Server{
		Addr:         addr,
		Handler:      NewRouter(),
		WriteTimeout: 120 * time.Second, // print calls block until transport completes
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	// Catch immediate binding errors
	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("Failed to start web server", zap.Error(err))
			return fmt.Errorf("failed to start web server on port %d: %w", port, err)
		}
	case <-time.After(100 * time.Millisecond):
	}

	return nil
}

// Shutdown gracefully shuts down the web server.
func Shutdown() {
	if httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown web server gracefully", zap.Error(err))
	} else {
		logger.Info("Web server shutdown complete")
	}
}

// handleStatus returns the service status.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	lastPrint, printCount := status.LastPrint()
	payload := map[string]interface{}{
		"version":          version.String(),
		"printerConnected": status.IsPrinterConnected(),
		"printCount":       printCount,
		"timestamp":        time.Now().Format(time.RFC3339),
	}
	if !lastPrint.IsZero() {
		payload["lastPrintAt"] = lastPrint.Format(time.RFC3339)
	}

	json.NewEncoder(w).Encode(payload)
}
