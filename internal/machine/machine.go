// Package machine is the registry of configured printers. Each machine
// carries its own string-keyed driver settings which override the global
// defaults; the print driver only ever sees a read-only Config accessor.
package machine

import (
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/settings"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

// Config provides read-only access to driver settings by key.
type Config interface {
	Get(key string) string
}

type Machine struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Driver    string            `json:"driver"`
	Settings  map[string]string `json:"settings"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Registry struct {
	db *sql.DB
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Create registers a new machine with the given per-machine settings.
func (r *Registry) Create(name string, cfg map[string]string) (*Machine, error) {
	if name == "" {
		return nil, fmt.Errorf("machine name is required")
	}
	for key, value := range cfg {
		if err := settings.ValidateSetting(key, value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate machine id: %w", err)
	}

	// machine row and its settings commit together or not at all
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO machines (id, name, driver) VALUES (?, ?, 'brother')`,
		id, name,
	); err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}

	for key, value := range cfg {
		if err := setMachineSetting(tx, id, key, value); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info("Machine registered", zap.String("id", id), zap.String("name", name))
	return r.Get(id)
}

// Get loads one machine with its settings.
func (r *Registry) Get(id string) (*Machine, error) {
	m := &Machine{Settings: map[string]string{}}
	err := r.db.QueryRow(
		`SELECT id, name, driver, created_at, updated_at FROM machines WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Driver, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("machine not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`SELECT key, value FROM machine_settings WHERE machine_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		m.Settings[key] = value
	}
	return m, rows.Err()
}

// List returns all registered machines (without their settings).
func (r *Registry) List() ([]*Machine, error) {
	rows, err := r.db.Query(`SELECT id, name, driver, created_at, updated_at FROM machines ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	machines := []*Machine{}
	for rows.Next() {
		m := &Machine{Settings: map[string]string{}}
		if err := rows.Scan(&m.ID, &m.Name, &m.Driver, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// Update replaces the name and the given settings of a machine.
func (r *Registry) Update(id, name string, cfg map[string]string) (*Machine, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}
	for key, value := range cfg {
		if err := settings.ValidateSetting(key, value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if name != "" {
		if _, err := tx.Exec(
			`UPDATE machines SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id,
		); err != nil {
			return nil, err
		}
	}
	for key, value := range cfg {
		if err := setMachineSetting(tx, id, key, value); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Delete removes a machine and its settings.
func (r *Registry) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM machines WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("machine not found: %s", id)
	}
	_, err = r.db.Exec(`DELETE FROM machine_settings WHERE machine_id = ?`, id)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func setMachineSetting(db execer, id, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO machine_settings (machine_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(machine_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		id, key, value)
	return err
}

// Config returns the read-only accessor for a machine: per-machine values
// first, global settings (or their defaults) as fallback.
func (r *Registry) Config(id string) (Config, error) {
	m, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return &layeredConfig{
		values:   m.Settings,
		fallback: settings.NewSettingsManager(r.db),
	}, nil
}

type layeredConfig struct {
	values   map[string]string
	fallback *settings.SettingsManager
}

func (c *layeredConfig) Get(key string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	v, err := c.fallback.GetSetting(key)
	if err != nil {
		return ""
	}
	return v
}

// MapConfig adapts a plain map to the Config interface. Used by tests and
// by callers printing against the global settings only.
type MapConfig map[string]string

func (m MapConfig) Get(key string) string { return m[key] }
