package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// GlobalConfigDir returns the global kataforge configuration directory.
// On Unix: ~/.config/kataforge (or XDG_CONFIG_HOME/kataforge)
// On Windows: %APPDATA%\kataforge
func GlobalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kataforge")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "kataforge")
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ""
	}
	return filepath.Join(homeDir, ".config", "kataforge")
}

// GlobalConfigPath returns the full path to the global config file.
func GlobalConfigPath() string {
	dir := GlobalConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// GlobalConfigExists returns true if a global config file exists.
func GlobalConfigExists() bool {
	path := GlobalConfigPath()
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// LoadGlobalConfig loads the global configuration from disk.
// Returns nil, nil if no global config exists (not an error).
// Returns nil, error if the config exists but cannot be read or parsed.
func LoadGlobalConfig() (*Config, error) {
	path := GlobalConfigPath()
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read global config: %w", err)
	}

	// Empty file is treated as no config
	if len(data) == 0 {
		return nil, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse global config: %w", err)
	}

	return &cfg, nil
}

// SaveGlobalConfig saves the configuration to the global config file.
// Creates the directory if it doesn't exist.
func SaveGlobalConfig(cfg *Config) error {
	dir := GlobalConfigDir()
	if dir == "" {
		return fmt.Errorf("cannot determine global config directory")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create global config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := GlobalConfigPath()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write global config: %w", err)
	}

	return nil
}

// MergeConfigs merges global and project configs, with project taking precedence.
// Returns a merged config where project values override global values.
// If both are nil, returns an empty Config (not nil).
func MergeConfigs(global, project *Config) *Config {
	result := &Config{}

	// Start with global config values
	if global != nil {
		*result = *global
	}

	// Override with project config values
	if project != nil {
		// Only override non-zero values from project
		if project.Version != 0 {
			result.Version = project.Version
		}
		if project.DefaultLanguage != "" {
			result.DefaultLanguage = project.DefaultLanguage
		}
		if project.LogLevel != "" {
			result.LogLevel = project.LogLevel
		}
		if project.Python.Lowering != "" {
			result.Python.Lowering = project.Python.Lowering
		}
		if project.Go.Module != "" {
			result.Go.Module = project.Go.Module
		}

		// Merge history settings
		if project.History.Enabled != nil {
			result.History.Enabled = project.History.Enabled
		}
		if project.History.Path != "" {
			result.History.Path = project.History.Path
		}

		if project.Batch.Jobs != 0 {
			result.Batch.Jobs = project.Batch.Jobs
		}

		// Merge render settings; pretty can only be switched on
		if project.Render.Pretty {
			result.Render.Pretty = true
		}
		if project.Render.WordWrap != 0 {
			result.Render.WordWrap = project.Render.WordWrap
		}
	}

	return result
}
