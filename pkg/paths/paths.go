package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "bil2asset"

// ConfigPath returns the location of config.yaml.
// Follows the XDG Base Directory specification on Unix and uses AppData on Windows.
func ConfigPath() (string, error) {
	// Check XDG_CONFIG_HOME first (Unix-like systems)
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.yaml"), nil
	}

	// Check if we're on Windows by looking for APPDATA
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName, "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// Fall back to ~/.config/bil2asset/config.yaml
	return filepath.Join(homeDir, ".config", appName, "config.yaml"), nil
}

// LayerOutput returns "<outDir>/<name>/<name>", the layout used when many
// rasters are converted into one tree. Each layer gets its own directory so
// that every index.txt describes exactly one file.
func LayerOutput(outDir, inputPath string) string {
	base := filepath.Base(inputPath)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(outDir, name, name)
}
