package machine

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stockroomlabs/brotherlabel/internal/localdb"
	"github.com/stockroomlabs/brotherlabel/internal/settings"
)

func setupTestDB(t *testing.T) *sql.DB {
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
	return db
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry(setupTestDB(t))

	m, err := r.Create("Stockroom QL", map[string]string{
		"MODEL":      "QL-820NWB",
		"LABEL":      "62",
		"IP_ADDRESS": "192.168.1.50",
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.ID == "" {
		t.Error("created machine has no id")
	}
	if m.Driver != "brother" {
		t.Errorf("driver = %q, want brother", m.Driver)
	}

	got, err := r.Get(m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Stockroom QL" {
		t.Errorf("name = %q, want Stockroom QL", got.Name)
	}
	if got.Settings["MODEL"] != "QL-820NWB" {
		t.Errorf("MODEL = %q, want QL-820NWB", got.Settings["MODEL"])
	}
}

func TestRegistryCreateValidation(t *testing.T) {
	r := NewRegistry(setupTestDB(t))

	if _, err := r.Create("", nil); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := r.Create("Bad", map[string]string{"MODEL": "QL-9999"}); err == nil {
		t.Error("expected error for unknown model")
	}
	if _, err := r.Create("Bad", map[string]string{"LABEL": "999"}); err == nil {
		t.Error("expected error for unknown media")
	}
}

func TestRegistryCreateRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	// Make the settings insert fail after the machines insert succeeded.
	if _, err := db.Exec(`CREATE TRIGGER reject_settings BEFORE INSERT ON machine_settings
		BEGIN SELECT RAISE(ABORT, 'settings writes disabled'); END`); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Create("Half-created", map[string]string{"LABEL": "62"}); err == nil {
		t.Fatal("expected create to fail when the settings insert is rejected")
	}

	machines, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(machines) != 0 {
		t.Errorf("found %d machines after failed create, want 0 (rolled back)", len(machines))
	}
}

func TestRegistryUpdateRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	m, err := r.Create("Original", nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.Exec(`CREATE TRIGGER reject_settings BEFORE INSERT ON machine_settings
		BEGIN SELECT RAISE(ABORT, 'settings writes disabled'); END`); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Update(m.ID, "Renamed", map[string]string{"LABEL": "62"}); err == nil {
		t.Fatal("expected update to fail when the settings insert is rejected")
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM machines WHERE id = ?`, m.ID).Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "Original" {
		t.Errorf("name = %q after failed update, want the rename rolled back", name)
	}
}

func TestRegistryListAndDelete(t *testing.T) {
	r := NewRegistry(setupTestDB(t))

	a, err := r.Create("Printer A", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create("Printer B", nil); err != nil {
		t.Fatal(err)
	}

	machines, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(machines) != 2 {
		t.Fatalf("listed %d machines, want 2", len(machines))
	}

	if err := r.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	machines, _ = r.List()
	if len(machines) != 1 {
		t.Errorf("listed %d machines after delete, want 1", len(machines))
	}

	if err := r.Delete("nope"); err == nil {
		t.Error("expected error deleting unknown machine")
	}
}

func TestRegistryUpdate(t *testing.T) {
	r := NewRegistry(setupTestDB(t))

	m, err := r.Create("Old Name", map[string]string{"LABEL": "12"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := r.Update(m.ID, "New Name", map[string]string{"LABEL": "62"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "New Name" {
		t.Errorf("name = %q, want New Name", updated.Name)
	}
	if updated.Settings["LABEL"] != "62" {
		t.Errorf("LABEL = %q, want 62", updated.Settings["LABEL"])
	}

	if _, err := r.Update(m.ID, "", map[string]string{"ROTATION": "45"}); err == nil {
		t.Error("expected validation error for rotation 45")
	}
	if _, err := r.Update("nope", "x", nil); err == nil {
		t.Error("expected error updating unknown machine")
	}
}

func TestConfigLayering(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry(db)

	sm := settings.NewSettingsManager(db)
	if err := sm.SetSetting("MODEL", "QL-700"); err != nil {
		t.Fatal(err)
	}
	if err := sm.SetSetting("IP_ADDRESS", "10.0.0.1"); err != nil {
		t.Fatal(err)
	}

	m, err := r.Create("Override", map[string]string{"IP_ADDRESS": "192.168.1.50"})
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := r.Config(m.ID)
	if err != nil {
		t.Fatal(err)
	}

	// machine value wins
	if got := cfg.Get("IP_ADDRESS"); got != "192.168.1.50" {
		t.Errorf("IP_ADDRESS = %q, want the machine override", got)
	}
	// global stored value as fallback
	if got := cfg.Get("MODEL"); got != "QL-700" {
		t.Errorf("MODEL = %q, want the global value", got)
	}
	// default as last resort
	if got := cfg.Get("LABEL"); got != "12" {
		t.Errorf("LABEL = %q, want the default", got)
	}
}

func TestMapConfig(t *testing.T) {
	cfg := MapConfig{"MODEL": "QL-700"}
	if cfg.Get("MODEL") != "QL-700" {
		t.Error("MapConfig lookup failed")
	}
	if cfg.Get("MISSING") != "" {
		t.Error("missing key should return empty string")
	}
}
