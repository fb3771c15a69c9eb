// Package printer drives a complete label print: it reads the machine
// configuration, adapts the label image to the media, converts it to raster
// instructions and sends one copy per transport call.
package printer

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/env"
	"github.com/stockroomlabs/brotherlabel/internal/labelimage"
	"github.com/stockroomlabs/brotherlabel/internal/machine"
	"github.com/stockroomlabs/brotherlabel/internal/rasterql"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
	"github.com/stockroomlabs/brotherlabel/internal/shared/paths"
	"github.com/stockroomlabs/brotherlabel/internal/status"
)

// ConfigError marks a problem with the machine configuration, detected
// before any transport attempt.
type ConfigError struct {
	Setting string
	Value   string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s=%q %s", e.Setting, e.Value, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

// Options are per-request print parameters on top of the machine config.
type Options struct {
	// Copies is the number of identical labels to print (minimum 1).
	Copies int
}

// SendFunc is the transport call signature; replaceable in tests.
type SendFunc func(instructions []byte, printerIdentifier string, backend rasterql.Backend, blocking bool) error

// Driver prints labels on one Brother printer per call. It holds no state
// between calls; every print reads the configuration fresh.
type Driver struct {
	Send SendFunc
}

func NewDriver() *Driver {
	return &Driver{Send: rasterql.Send}
}

// PrintLabel adapts img to the configured media and sends it to the
// configured destination, once per copy. Transport errors propagate as-is;
// a failing copy stops the remaining ones.
func (d *Driver) PrintLabel(cfg machine.Config, img image.Image, opts Options) error {
	jobID, _ := gonanoid.New()

	model := cfg.Get("MODEL")
	labelID := cfg.Get("LABEL")
	ipAddress := cfg.Get("IP_ADDRESS")
	usbDevice := cfg.Get("USB_DEVICE")
	autoCut := cfg.Get("AUTO_CUT") == "true"
	compress := cfg.Get("COMPRESSION") == "true"
	hq := cfg.Get("HQ") == "true"
	rotation := parseRotation(cfg.Get("ROTATION"))

	copies := opts.Copies
	if copies < 1 {
		copies = 1
	}

	logger.Info("Print job started",
		zap.String("job_id", jobID),
		zap.String("model", model),
		zap.String("label", labelID),
		zap.Int("rotation", rotation),
		zap.Int("copies", copies))

	// Resolve destination before doing any work
	var identifier string
	var backend rasterql.Backend
	switch {
	case ipAddress != "":
		identifier = "tcp://" + ipAddress
		backend = rasterql.BackendNetwork
	case usbDevice != "":
		identifier = "usb://" + usbDevice
		backend = rasterql.BackendUSB
	default:
		return &ConfigError{Setting: "IP_ADDRESS/USB_DEVICE", Reason: "no printer destination configured"}
	}

	adapted, err := labelimage.Adapt(img, labelID, rotation)
	if err != nil {
		return &ConfigError{Setting: "LABEL", Value: labelID, Reason: err.Error()}
	}

	raster, err := rasterql.NewRaster(model)
	if err != nil {
		return &ConfigError{Setting: "MODEL", Value: model, Reason: err.Error()}
	}

	if env.Value.DebugOutput {
		d.saveSpoolCopy(jobID, adapted.Image)
	}

	// Rotation is baked into the adapted image, so the conversion itself
	// never rotates.
	instructions, err := raster.Convert([]image.Image{adapted.Image}, rasterql.ConvertOptions{
		LabelID:  labelID,
		Cut:      autoCut,
		Compress: compress,
		HQ:       hq,
		Red:      adapted.Red,
	})
	if err != nil {
		return fmt.Errorf("raster conversion failed: %w", err)
	}

	if env.Value.DryRunMode {
		logger.Info("Dry-run mode: skipping transport call",
			zap.String("job_id", jobID),
			zap.String("destination", identifier),
			zap.Int("copies", copies))
		return nil
	}

	for n := 1; n <= copies; n++ {
		if err := d.Send(instructions, identifier, backend, true); err != nil {
			status.SetPrinterConnected(false)
			logger.Error("Transport call failed",
				zap.String("job_id", jobID),
				zap.String("destination", identifier),
				zap.Int("copy", n),
				zap.Error(err))
			return err
		}
		logger.Info("Copy sent",
			zap.String("job_id", jobID),
			zap.Int("copy", n),
			zap.Int("copies", copies))
	}

	status.SetPrinterConnected(true)
	status.RecordPrint()
	return nil
}

// saveSpoolCopy writes the printable image to the spool dir for debugging.
func (d *Driver) saveSpoolCopy(jobID string, img image.Image) {
	name := fmt.Sprintf("%s_%s.png", time.Now().Format("20060102_150405"), jobID)
	path := filepath.Join(paths.GetSpoolDir(), name)
	if err := os.MkdirAll(paths.GetSpoolDir(), 0755); err != nil {
		logger.Warn("Failed to create spool directory", zap.Error(err))
		return
	}
	if err := imaging.Save(img, path); err != nil {
		logger.Warn("Failed to save spool copy", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Debug("Spool copy saved", zap.String("path", path))
}

func parseRotation(value string) int {
	switch value {
	case "90":
		return 90
	case "180":
		return 180
	case "270":
		return 270
	default:
		return 0
	}
}
