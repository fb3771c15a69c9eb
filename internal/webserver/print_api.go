package webserver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/localdb"
	"github.com/stockroomlabs/brotherlabel/internal/machine"
	"github.com/stockroomlabs/brotherlabel/internal/printer"
	"github.com/stockroomlabs/brotherlabel/internal/settings"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

const maxLabelUploadSize = 16 << 20 // 16MB

// PrintRequest is the JSON body of POST /api/print. Image is a base64
// encoded PNG or JPEG as rendered by the host application.
type PrintRequest struct {
	MachineID string `json:"machine_id,omitempty"`
	Image     string `json:"image"`
	Copies    int    `json:"copies,omitempty"`
}

type PrintResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Copies  int    `json:"copies,omitempty"`
}

// handlePrint receives a rendered label image and prints it synchronously.
// Accepts either a JSON body (base64 image) or a multipart form with a
// "label" file field.
func handlePrint(w http.ResponseWriter, r *http.Request) {
	img, machineID, copies, err := parsePrintRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if copies < 1 {
		copies = 1
	}

	cfg, err := resolveConfig(machineID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	logger.Info("Print request received",
		zap.String("machine_id", machineID),
		zap.Int("copies", copies),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	if err := printDriver.PrintLabel(cfg, img, printer.Options{Copies: copies}); err != nil {
		var cfgErr *printer.ConfigError
		code := http.StatusBadGateway // transport and protocol errors
		if errors.As(err, &cfgErr) {
			code = http.StatusBadRequest
		}
		logger.Error("Print request failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(PrintResponse{Success: false, Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PrintResponse{Success: true, Copies: copies})
}

// parsePrintRequest extracts the label image and options from either a
// multipart upload or a JSON body.
func parsePrintRequest(r *http.Request) (image.Image, string, int, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxLabelUploadSize); err != nil {
			return nil, "", 0, errors.New("failed to parse multipart form")
		}
		file, _, err := r.FormFile("label")
		if err != nil {
			return nil, "", 0, errors.New("missing label file field")
		}
		defer file.Close()

		img, _, err := image.Decode(file)
		if err != nil {
			return nil, "", 0, errors.New("label file is not a decodable image")
		}

		copies, _ := strconv.Atoi(r.FormValue("copies"))
		return img, r.FormValue("machine_id"), copies, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLabelUploadSize))
	if err != nil {
		return nil, "", 0, errors.New("failed to read request body")
	}
	defer r.Body.Close()

	var req PrintRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, "", 0, errors.New("invalid JSON")
	}
	if req.Image == "" {
		return nil, "", 0, errors.New("image is required")
	}

	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return nil, "", 0, errors.New("image is not valid base64")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", 0, errors.New("image is not a decodable PNG/JPEG")
	}

	return img, req.MachineID, req.Copies, nil
}

// resolveConfig returns a machine's config accessor, or the global settings
// when no machine id is given.
func resolveConfig(machineID string) (machine.Config, error) {
	db := localdb.GetDB()
	if db == nil {
		return nil, errors.New("database not initialized")
	}
	if machineID == "" {
		return globalConfig{sm: settings.NewSettingsManager(db)}, nil
	}
	return machine.NewRegistry(db).Config(machineID)
}

// globalConfig adapts the settings store to the machine.Config interface.
type globalConfig struct {
	sm *settings.SettingsManager
}

func (c globalConfig) Get(key string) string {
	v, err := c.sm.GetSetting(key)
	if err != nil {
		return ""
	}
	return v
}
