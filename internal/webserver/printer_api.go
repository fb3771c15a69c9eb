package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/env"
	"github.com/stockroomlabs/brotherlabel/internal/media"
	"github.com/stockroomlabs/brotherlabel/internal/printer"
	"github.com/stockroomlabs/brotherlabel/internal/settings"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
	"github.com/stockroomlabs/brotherlabel/internal/status"
	"github.com/stockroomlabs/brotherlabel/internal/testlabel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type TestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handlePrinterStatus reports destination configuration and reachability.
func handlePrinterStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := resolveConfig(r.URL.Query().Get("machine_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	ip := cfg.Get("IP_ADDRESS")
	usb := cfg.Get("USB_DEVICE")

	response := map[string]interface{}{
		"configured":   ip != "" || usb != "",
		"connected":    status.IsPrinterConnected(),
		"dry_run_mode": env.Value.DryRunMode,
		"model":        cfg.Get("MODEL"),
		"label":        cfg.Get("LABEL"),
		"ip_address":   ip,
		"usb_device":   usb,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handlePrinterTestPrint renders a QR test label and prints it with the
// current settings.
func handlePrinterTestPrint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MachineID string `json:"machine_id"`
		Caption   string `json:"caption"`
		Copies    int    `json:"copies"`
	}
	if r.Body != nil {
		// Body is optional, defaults apply
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	cfg, err := resolveConfig(req.MachineID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	img, err := testlabel.Generate(req.Caption)
	if err != nil {
		logger.Error("Failed to generate test label", zap.Error(err))
		http.Error(w, "Failed to generate test label", http.StatusInternalServerError)
		return
	}

	logger.Info("Starting test print via API", zap.String("machine_id", req.MachineID))

	if err := printDriver.PrintLabel(cfg, img, printer.Options{Copies: req.Copies}); err != nil {
		var cfgErr *printer.ConfigError
		code := http.StatusBadGateway
		if errors.As(err, &cfgErr) {
			code = http.StatusBadRequest
		}
		logger.Error("Failed to print test label", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(TestResponse{Success: false, Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TestResponse{Success: true, Message: "Test label printed"})
}

// handlePrinterTest checks whether the configured destination is reachable
// without printing.
func handlePrinterTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IPAddress string `json:"ip_address"`
		USBDevice string `json:"usb_device"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.IPAddress == "" && req.USBDevice == "" {
		http.Error(w, "ip_address or usb_device is required", http.StatusBadRequest)
		return
	}

	testErr := probeDestination(req.IPAddress, req.USBDevice)
	response := TestResponse{Success: testErr == nil, Message: "Connection successful"}
	if testErr != nil {
		response.Message = testErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handlePrinterTestWS is the WebSocket variant of the destination test. The
// handshake is a GET, so the destination arrives as query parameters and
// progress steps stream back over the connection before the final result.
func handlePrinterTestWS(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip_address")
	usb := r.URL.Query().Get("usb_device")
	if ip == "" && usb == "" {
		http.Error(w, "ip_address or usb_device is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	sendProgress := func(step, state, detail string) {
		progress := map[string]interface{}{
			"step":      step,
			"status":    state,
			"detail":    detail,
			"timestamp": time.Now(),
		}
		conn.WriteJSON(progress)
	}

	sendProgress("connect", "starting", "Checking printer destination...")
	testErr := probeDestination(ip, usb)
	if testErr != nil {
		sendProgress("connect", "error", testErr.Error())
	} else {
		sendProgress("connect", "completed", "Destination reachable")
	}

	message := "Connection test successful"
	if testErr != nil {
		message = testErr.Error()
	}
	conn.WriteJSON(map[string]interface{}{
		"success":   testErr == nil,
		"completed": true,
		"message":   message,
	})
}

// probeDestination checks reachability of the destination: a TCP dial for
// networked printers, a stat of the device file for USB.
func probeDestination(ipAddress, usbDevice string) error {
	if ipAddress != "" {
		addr := ipAddress
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, "9100")
		}
		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			return fmt.Errorf("printer at %s not reachable: %w", ipAddress, err)
		}
		conn.Close()
		status.SetPrinterConnected(true)
		return nil
	}

	if _, err := os.Stat(usbDevice); err != nil {
		return fmt.Errorf("USB device %s not available: %w", usbDevice, err)
	}
	status.SetPrinterConnected(true)
	return nil
}

// handleMediaChoices returns the label media catalog for UI choice lists.
func handleMediaChoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"media": media.LabelChoices(),
		"count": len(media.AllLabels),
	})
}

// handleModelChoices returns the printer model catalog.
func handleModelChoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"models": media.ModelChoices(),
		"count":  len(media.AllModels),
	})
}

// handleSettingsStatus reports whether the plugin is fully configured.
func handleSettingsStatus(w http.ResponseWriter, r *http.Request) {
	db := dbOrError(w)
	if db == nil {
		return
	}

	featureStatus, err := settings.NewSettingsManager(db).CheckFeatureStatus()
	if err != nil {
		http.Error(w, "Failed to check settings status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(featureStatus)
}
