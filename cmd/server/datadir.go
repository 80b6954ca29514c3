package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// ensureDataDir creates the directory holding the SQLite file
func ensureDataDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}
