// Package config provides configuration loading, validation, and path resolution.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDirEnvVar is the environment variable name for overriding
// the data directory that holds the history database.
const DataDirEnvVar = "KATAFORGE_DATA_DIR"

// HistoryFileName is the history database file inside the data directory.
const HistoryFileName = "history.db"

// DataDir returns the path to the kataforge data directory.
// The path is determined in the following order of precedence:
//
//  1. KATAFORGE_DATA_DIR environment variable (if set and non-empty)
//  2. Platform-specific default:
//     - macOS/Linux: $XDG_DATA_HOME/kataforge or ~/.local/share/kataforge
//     - Windows: %LOCALAPPDATA%\kataforge
//
// The directory may not exist; use EnsureDataDir to create it if needed.
func DataDir() (string, error) {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir, nil
	}

	if runtime.GOOS == "windows" {
		return windowsDataDir()
	}
	return unixDataDir()
}

// EnsureDataDir returns the data directory path, creating it if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return dir, nil
}

// HistoryPath returns the history database path for cfg. A relative
// history.path is resolved against projectRoot.
func HistoryPath(cfg *Config, projectRoot string) (string, error) {
	if cfg.History.Path != "" {
		if filepath.IsAbs(cfg.History.Path) {
			return cfg.History.Path, nil
		}
		return filepath.Join(projectRoot, cfg.History.Path), nil
	}

	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, HistoryFileName), nil
}

// unixDataDir respects XDG_DATA_HOME if set, otherwise falls back to ~/.local/share.
func unixDataDir() (string, error) {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "kataforge"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".local", "share", "kataforge"), nil
}

// windowsDataDir uses %LOCALAPPDATA%\kataforge.
func windowsDataDir() (string, error) {
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		localAppData = filepath.Join(homeDir, "AppData", "Local")
	}

	return filepath.Join(localAppData, "kataforge"), nil
}
