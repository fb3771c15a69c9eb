package paths

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the base directory for runtime data (database, spool
// files). Overridable with BROTHERLABEL_DATA_DIR; defaults to ./data.
func GetDataDir() string {
	if dir := os.Getenv("BROTHERLABEL_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// GetDBPath returns the path of the local SQLite database.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "brotherlabel.db")
}

// GetSpoolDir returns the directory used for debug copies of printable images.
func GetSpoolDir() string {
	return filepath.Join(GetDataDir(), "spool")
}

// EnsureDataDirs creates the data directories if missing.
func EnsureDataDirs() error {
	for _, dir := range []string{GetDataDir(), GetSpoolDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
