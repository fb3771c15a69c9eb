package settings

import (
	"path/filepath"
	"testing"

	"github.com/stockroomlabs/brotherlabel/internal/localdb"
)

func setupTestDB(t *testing.T) *SettingsManager {
	t.Helper()
	localdb.DBClient = nil
	db, err := localdb.SetupDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to set up test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		localdb.DBClient = nil
	})
	return NewSettingsManager(db)
}

func TestGetSettingReturnsDefaultWhenUnset(t *testing.T) {
	sm := setupTestDB(t)

	value, err := sm.GetSetting("MODEL")
	if err != nil {
		t.Fatal(err)
	}
	if value != "PT-P750W" {
		t.Errorf("MODEL default = %q, want PT-P750W", value)
	}

	if _, err := sm.GetSetting("NO_SUCH_KEY"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSetAndGetSetting(t *testing.T) {
	sm := setupTestDB(t)

	if err := sm.SetSetting("MODEL", "QL-820NWB"); err != nil {
		t.Fatal(err)
	}
	value, err := sm.GetSetting("MODEL")
	if err != nil {
		t.Fatal(err)
	}
	if value != "QL-820NWB" {
		t.Errorf("MODEL = %q, want QL-820NWB", value)
	}

	// overwrite
	if err := sm.SetSetting("MODEL", "QL-700"); err != nil {
		t.Fatal(err)
	}
	value, _ = sm.GetSetting("MODEL")
	if value != "QL-700" {
		t.Errorf("MODEL after overwrite = %q, want QL-700", value)
	}

	if err := sm.SetSetting("NO_SUCH_KEY", "x"); err == nil {
		t.Error("expected error when setting an unknown key")
	}
}

func TestGetAllSettingsIncludesDefaults(t *testing.T) {
	sm := setupTestDB(t)

	if err := sm.SetSetting("IP_ADDRESS", "192.168.1.50"); err != nil {
		t.Fatal(err)
	}

	all, err := sm.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}

	for key := range DefaultSettings {
		if _, ok := all[key]; !ok {
			t.Errorf("GetAllSettings missing key %s", key)
		}
	}
	if all["IP_ADDRESS"].Value != "192.168.1.50" {
		t.Errorf("IP_ADDRESS = %q, want stored value", all["IP_ADDRESS"].Value)
	}
	if !all["IP_ADDRESS"].HasValue {
		t.Error("IP_ADDRESS should report HasValue")
	}
}

func TestMigrateFromEnv(t *testing.T) {
	sm := setupTestDB(t)

	t.Setenv("IP_ADDRESS", "10.0.0.7")
	t.Setenv("MODEL", "QL-700")

	if err := sm.MigrateFromEnv(); err != nil {
		t.Fatal(err)
	}

	ip, _ := sm.GetSetting("IP_ADDRESS")
	if ip != "10.0.0.7" {
		t.Errorf("IP_ADDRESS = %q, want migrated value", ip)
	}

	// Existing DB values win over the environment.
	t.Setenv("MODEL", "QL-500")
	if err := sm.MigrateFromEnv(); err != nil {
		t.Fatal(err)
	}
	model, _ := sm.GetSetting("MODEL")
	if model != "QL-700" {
		t.Errorf("MODEL = %q, want the previously migrated value", model)
	}
}

func TestInitializeDefaultSettings(t *testing.T) {
	sm := setupTestDB(t)

	if err := sm.SetSetting("LABEL", "62"); err != nil {
		t.Fatal(err)
	}
	if err := sm.InitializeDefaultSettings(); err != nil {
		t.Fatal(err)
	}

	label, _ := sm.GetSetting("LABEL")
	if label != "62" {
		t.Errorf("LABEL = %q, initialization must not overwrite stored values", label)
	}
	port, _ := sm.GetSetting("SERVER_PORT")
	if port != "8080" {
		t.Errorf("SERVER_PORT = %q, want seeded default", port)
	}
}

func TestCheckFeatureStatus(t *testing.T) {
	sm := setupTestDB(t)

	status, err := sm.CheckFeatureStatus()
	if err != nil {
		t.Fatal(err)
	}
	if !status.PrinterConfigured {
		t.Error("printer should count as configured via defaults")
	}
	if status.DestinationConfigured {
		t.Error("no destination configured yet")
	}
	if len(status.MissingSettings) == 0 {
		t.Error("expected IP_ADDRESS among missing settings")
	}

	if err := sm.SetSetting("IP_ADDRESS", "192.168.1.50"); err != nil {
		t.Fatal(err)
	}
	if err := sm.SetSetting("DRY_RUN_MODE", "true"); err != nil {
		t.Fatal(err)
	}

	status, err = sm.CheckFeatureStatus()
	if err != nil {
		t.Fatal(err)
	}
	if !status.DestinationConfigured {
		t.Error("destination should be configured after setting IP_ADDRESS")
	}
	if len(status.Warnings) == 0 {
		t.Error("expected a dry-run warning")
	}
}

func TestValidateSetting(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{"MODEL", "QL-820NWB", false},
		{"MODEL", "QL-9999", true},
		{"LABEL", "62red", false},
		{"LABEL", "999", true},
		{"ROTATION", "270", false},
		{"ROTATION", "45", true},
		{"IP_ADDRESS", "192.168.1.50", false},
		{"IP_ADDRESS", "192.168.1.50:9100", false},
		{"IP_ADDRESS", "", false},
		{"IP_ADDRESS", "not-an-ip", true},
		{"SERVER_PORT", "8080", false},
		{"SERVER_PORT", "0", true},
		{"SERVER_PORT", "70000", true},
		{"SERVER_PORT", "abc", true},
		{"AUTO_CUT", "true", false},
		{"AUTO_CUT", "yes", true},
		{"DRY_RUN_MODE", "false", false},
		{"DRY_RUN_MODE", "maybe", true},
	}

	for _, tc := range tests {
		err := ValidateSetting(tc.key, tc.value)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateSetting(%q, %q) error = %v, wantErr %v",
				tc.key, tc.value, err, tc.wantErr)
		}
	}
}
