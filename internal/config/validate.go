package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// validLogLevels defines the allowed log level values
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLowerings defines the allowed python.lowering values
var validLowerings = map[string]bool{
	"pytest":   true,
	"unittest": true,
}

// Validate checks the configuration for errors and returns all validation errors found
func Validate(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	// Version validation
	if cfg.Version < 1 {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: "must be at least 1",
		})
	}

	if cfg.DefaultLanguage == "" {
		errors = append(errors, ValidationError{
			Field:   "default_language",
			Message: "must not be empty",
		})
	}

	if !validLogLevels[cfg.LogLevel] {
		errors = append(errors, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("invalid log level '%s'; valid values are: debug, info, warn, error", cfg.LogLevel),
		})
	}

	if !validLowerings[cfg.Python.Lowering] {
		errors = append(errors, ValidationError{
			Field:   "python.lowering",
			Message: fmt.Sprintf("invalid lowering '%s'; valid values are: pytest, unittest", cfg.Python.Lowering),
		})
	}

	if strings.TrimSpace(cfg.Go.Module) == "" {
		errors = append(errors, ValidationError{
			Field:   "go.module",
			Message: "must not be empty",
		})
	} else if strings.ContainsAny(cfg.Go.Module, " \t\"") {
		errors = append(errors, ValidationError{
			Field:   "go.module",
			Message: fmt.Sprintf("invalid module path '%s'", cfg.Go.Module),
		})
	}

	if cfg.Batch.Jobs < 1 {
		errors = append(errors, ValidationError{
			Field:   "batch.jobs",
			Message: "must be at least 1",
		})
	}

	if cfg.Render.WordWrap < 0 {
		errors = append(errors, ValidationError{
			Field:   "render.word_wrap",
			Message: "must be non-negative",
		})
	}

	return errors
}

// ValidateOrError is a convenience function that returns an error if validation fails
func ValidateOrError(cfg *Config) error {
	errors := Validate(cfg)
	if errors.HasErrors() {
		return errors
	}
	return nil
}
