package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the name of the config file without extension
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension
	ConfigFileExt = "yaml"
	// ProjectDir is the name of the per-project kataforge directory
	ProjectDir = ".kataforge"
	// EnvPrefix prefixes environment overrides (KATAFORGE_BATCH_JOBS)
	EnvPrefix = "KATAFORGE"
)

// Keys lists every configuration key in dotted form.
var Keys = []string{
	"version",
	"default_language",
	"log_level",
	"python.lowering",
	"go.module",
	"history.enabled",
	"history.path",
	"batch.jobs",
	"render.pretty",
	"render.word_wrap",
}

// Loader handles configuration loading and saving
type Loader struct {
	projectRoot string
	v           *viper.Viper
}

// NewLoader creates a new config loader for the given project root
func NewLoader(projectRoot string) *Loader {
	return &Loader{
		projectRoot: projectRoot,
		v:           viper.New(),
	}
}

// ConfigPath returns the full path to the config file
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.projectRoot, ProjectDir, ConfigFileName+"."+ConfigFileExt)
}

// ProjectDirPath returns the full path to the .kataforge directory
func (l *Loader) ProjectDirPath() string {
	return filepath.Join(l.projectRoot, ProjectDir)
}

// Exists returns true if a config file exists at the expected location
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// Load reads the configuration from disk
// If the config file doesn't exist, it returns an error
func (l *Loader) Load() (*Config, error) {
	if !l.Exists() {
		return nil, fmt.Errorf("config file not found at %s", l.ConfigPath())
	}

	// Create a fresh viper instance for each load to avoid stale state
	l.v = viper.New()
	l.v.SetConfigFile(l.ConfigPath())
	l.v.SetConfigType(ConfigFileExt)

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use empty struct so viper values are used directly without merging with defaults
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the configuration from disk, or returns default config if not found
func (l *Loader) LoadOrDefault() (*Config, error) {
	if !l.Exists() {
		return Default(), nil
	}
	return l.Load()
}

// Resolve builds the effective configuration: defaults, then the global
// config, then the project config, then KATAFORGE_* environment overrides.
func (l *Loader) Resolve() (*Config, error) {
	global, err := LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	var project *Config
	if l.Exists() {
		project, err = l.Load()
		if err != nil {
			return nil, err
		}
	}

	cfg := MergeConfigs(MergeConfigs(Default(), global), project)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any KATAFORGE_* environment variables, one
// per key with dots replaced by underscores.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range Keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// Save writes the configuration to disk
// It creates the .kataforge directory if it doesn't exist
func (l *Loader) Save(cfg *Config) error {
	if err := os.MkdirAll(l.ProjectDirPath(), 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", ProjectDir, err)
	}

	// Set all config values in viper
	l.v.Set("version", cfg.Version)
	l.v.Set("default_language", cfg.DefaultLanguage)
	l.v.Set("log_level", cfg.LogLevel)
	l.v.Set("python", cfg.Python)
	l.v.Set("go", cfg.Go)
	l.v.Set("history", cfg.History)
	l.v.Set("batch", cfg.Batch)
	l.v.Set("render", cfg.Render)

	if err := l.v.WriteConfigAs(l.ConfigPath()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Init initializes a new kataforge configuration in the project
// It creates the .kataforge directory and writes a default config file
func (l *Loader) Init() (*Config, error) {
	if l.Exists() {
		return nil, fmt.Errorf("config already exists at %s", l.ConfigPath())
	}

	cfg := Default()
	if err := l.Save(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge loads the existing config and merges the provided overrides
func (l *Loader) Merge(overrides map[string]interface{}) (*Config, error) {
	cfg, err := l.LoadOrDefault()
	if err != nil {
		return nil, err
	}

	// Apply overrides using viper's merge capability
	for key, value := range overrides {
		l.v.Set(key, value)
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal merged config: %w", err)
	}

	return cfg, nil
}
