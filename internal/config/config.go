package config

import (
	"log/slog"
	"strings"
)

// Config represents the complete kataforge configuration
type Config struct {
	Version         int           `yaml:"version" json:"version" mapstructure:"version"`
	DefaultLanguage string        `yaml:"default_language" json:"default_language" mapstructure:"default_language"`
	LogLevel        string        `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	Python          PythonConfig  `yaml:"python" json:"python" mapstructure:"python"`
	Go              GoConfig      `yaml:"go" json:"go" mapstructure:"go"`
	History         HistoryConfig `yaml:"history" json:"history" mapstructure:"history"`
	Batch           BatchConfig   `yaml:"batch" json:"batch" mapstructure:"batch"`
	Render          RenderConfig  `yaml:"render" json:"render" mapstructure:"render"`
}

// PythonConfig selects how codewars_test suites are lowered
type PythonConfig struct {
	Lowering string `yaml:"lowering" json:"lowering" mapstructure:"lowering"`
}

// GoConfig contains Go kata settings
type GoConfig struct {
	Module string `yaml:"module" json:"module" mapstructure:"module"`
}

// HistoryConfig contains history store settings
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled" json:"enabled,omitempty" mapstructure:"enabled"` // nil = enabled
	Path    string `yaml:"path" json:"path,omitempty" mapstructure:"path"`           // empty = data dir
}

// BatchConfig contains directory conversion settings
type BatchConfig struct {
	Jobs int `yaml:"jobs" json:"jobs" mapstructure:"jobs"`
}

// RenderConfig contains description rendering settings
type RenderConfig struct {
	Pretty   bool `yaml:"pretty" json:"pretty" mapstructure:"pretty"`
	WordWrap int  `yaml:"word_wrap" json:"word_wrap" mapstructure:"word_wrap"`
}

// IsEnabled reports whether history is recorded. Unset means enabled.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// SlogLevel returns the slog level for LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
