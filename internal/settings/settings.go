package settings

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/media"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

type SettingType string

const (
	SettingTypeNormal SettingType = "normal"
	SettingTypeSecret SettingType = "secret"
)

type Setting struct {
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Type        SettingType `json:"type"`
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	UpdatedAt   time.Time   `json:"updated_at"`
	HasValue    bool        `json:"has_value"`
}

type SettingsManager struct {
	db *sql.DB
}

func NewSettingsManager(db *sql.DB) *SettingsManager {
	return &SettingsManager{db: db}
}

// DefaultSettings defines every known setting key with its default value.
// These are the global defaults; per-machine values override them.
var DefaultSettings = map[string]Setting{
	// Printer selection
	"MODEL": {
		Key: "MODEL", Value: "PT-P750W", Type: SettingTypeNormal, Required: true,
		Description: "Brother printer model",
	},
	"LABEL": {
		Key: "LABEL", Value: "12", Type: SettingTypeNormal, Required: true,
		Description: "Label media identifier",
	},

	// Destination (one of the two must be set)
	"IP_ADDRESS": {
		Key: "IP_ADDRESS", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "IP address of a networked printer",
	},
	"USB_DEVICE": {
		Key: "USB_DEVICE", Value: "", Type: SettingTypeNormal, Required: false,
		Description: "USB device file of an attached printer (e.g. /dev/usb/lp0)",
	},

	// Print behavior
	"AUTO_CUT": {
		Key: "AUTO_CUT", Value: "true", Type: SettingTypeNormal, Required: false,
		Description: "Cut each label after printing",
	},
	"ROTATION": {
		Key: "ROTATION", Value: "0", Type: SettingTypeNormal, Required: false,
		Description: "Label rotation in degrees (0, 90, 180, 270)",
	},
	"COMPRESSION": {
		Key: "COMPRESSION", Value: "false", Type: SettingTypeNormal, Required: false,
		Description: "Enable raster compression (supported models only)",
	},
	"HQ": {
		Key: "HQ", Value: "true", Type: SettingTypeNormal, Required: false,
		Description: "High quality (slower) printing",
	},

	// Service behavior
	"DRY_RUN_MODE": {
		Key: "DRY_RUN_MODE", Value: "false", Type: SettingTypeNormal, Required: false,
		Description: "Run the full pipeline but skip the transport call",
	},
	"DEBUG_OUTPUT": {
		Key: "DEBUG_OUTPUT", Value: "false", Type: SettingTypeNormal, Required: false,
		Description: "Save printable images to the spool directory",
	},
	"SERVER_PORT": {
		Key: "SERVER_PORT", Value: "8080", Type: SettingTypeNormal, Required: false,
		Description: "HTTP port of the plugin API",
	},
}

// FeatureStatus summarizes whether the plugin is usable with the current
// settings.
type FeatureStatus struct {
	PrinterConfigured     bool     `json:"printer_configured"`
	DestinationConfigured bool     `json:"destination_configured"`
	MissingSettings       []string `json:"missing_settings"`
	Warnings              []string `json:"warnings"`
}

func (sm *SettingsManager) CheckFeatureStatus() (*FeatureStatus, error) {
	status := &FeatureStatus{
		MissingSettings: []string{},
		Warnings:        []string{},
	}

	printerComplete := true
	for _, key := range []string{"MODEL", "LABEL"} {
		if val, err := sm.GetSetting(key); err != nil || val == "" {
			status.MissingSettings = append(status.MissingSettings, key)
			printerComplete = false
		}
	}
	status.PrinterConfigured = printerComplete

	ip, _ := sm.GetSetting("IP_ADDRESS")
	usb, _ := sm.GetSetting("USB_DEVICE")
	status.DestinationConfigured = ip != "" || usb != ""
	if !status.DestinationConfigured {
		status.MissingSettings = append(status.MissingSettings, "IP_ADDRESS")
	}

	if dryRun, _ := sm.GetSetting("DRY_RUN_MODE"); dryRun == "true" {
		status.Warnings = append(status.Warnings, "DRY_RUN_MODE is enabled - no actual printing will occur")
	}

	return status, nil
}

func (sm *SettingsManager) GetSetting(key string) (string, error) {
	var value string
	err := sm.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		if defaultSetting, exists := DefaultSettings[key]; exists {
			return defaultSetting.Value, nil
		}
		return "", fmt.Errorf("setting not found: %s", key)
	}
	return value, err
}

func (sm *SettingsManager) SetSetting(key, value string) error {
	defaultSetting, exists := DefaultSettings[key]
	if !exists {
		return fmt.Errorf("unknown setting key: %s", key)
	}

	_, err := sm.db.Exec(`
		INSERT INTO settings (key, value, setting_type, is_required, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value,
		string(defaultSetting.Type),
		defaultSetting.Required,
		defaultSetting.Description,
	)
	return err
}

func (sm *SettingsManager) GetAllSettings() (map[string]Setting, error) {
	rows, err := sm.db.Query(`
		SELECT key, value, setting_type, is_required, description, updated_at
		FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]Setting)
	for rows.Next() {
		var s Setting
		var settingType string
		var description sql.NullString
		err := rows.Scan(&s.Key, &s.Value, &settingType, &s.Required, &description, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		s.Type = SettingType(settingType)
		s.Description = description.String
		s.HasValue = s.Value != ""
		settings[s.Key] = s
	}

	// Keys never written to the DB show up with their defaults
	for key, defaultSetting := range DefaultSettings {
		if _, exists := settings[key]; !exists {
			settings[key] = defaultSetting
		}
	}

	return settings, nil
}

// MigrateFromEnv seeds settings from environment variables on first start.
func (sm *SettingsManager) MigrateFromEnv() error {
	migrated := 0

	for key := range DefaultSettings {
		var existingKey string
		if err := sm.db.QueryRow("SELECT key FROM settings WHERE key = ?", key).Scan(&existingKey); err == nil {
			continue
		}

		if envValue := os.Getenv(key); envValue != "" {
			if err := sm.SetSetting(key, envValue); err != nil {
				logger.Error("Failed to migrate setting", zap.String("key", key), zap.Error(err))
				return fmt.Errorf("failed to migrate %s: %w", key, err)
			}
			logger.Info("Migrated setting from environment", zap.String("key", key))
			migrated++
		}
	}

	if migrated > 0 {
		logger.Info("Migration completed", zap.Int("migrated_count", migrated))
	}

	return nil
}

var ipAddressPattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}(:\d{1,5})?$`)

// ValidateSetting rejects values that would break a later print call.
func ValidateSetting(key, value string) error {
	switch key {
	case "MODEL":
		if _, ok := media.FindModel(value); !ok {
			return fmt.Errorf("unknown printer model: %s", value)
		}
	case "LABEL":
		if _, ok := media.FindLabel(value); !ok {
			return fmt.Errorf("unknown label media: %s", value)
		}
	case "ROTATION":
		switch value {
		case "0", "90", "180", "270":
		default:
			return fmt.Errorf("must be one of 0, 90, 180, 270")
		}
	case "IP_ADDRESS":
		if value != "" && !ipAddressPattern.MatchString(value) {
			return fmt.Errorf("invalid IP address format")
		}
	case "SERVER_PORT":
		if val, err := strconv.Atoi(value); err != nil || val < 1 || val > 65535 {
			return fmt.Errorf("must be integer between 1 and 65535")
		}
	case "AUTO_CUT", "COMPRESSION", "HQ", "DRY_RUN_MODE", "DEBUG_OUTPUT":
		if value != "true" && value != "false" {
			return fmt.Errorf("must be 'true' or 'false'")
		}
	}
	return nil
}

// InitializeDefaultSettings writes defaults for any key not yet in the DB.
func (sm *SettingsManager) InitializeDefaultSettings() error {
	for key, setting := range DefaultSettings {
		var existingKey string
		if err := sm.db.QueryRow("SELECT key FROM settings WHERE key = ?", key).Scan(&existingKey); err == nil {
			continue
		}

		if err := sm.SetSetting(key, setting.Value); err != nil {
			return fmt.Errorf("failed to initialize setting %s: %w", key, err)
		}
	}
	return nil
}
