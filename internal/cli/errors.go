package cli

import (
	"fmt"
	"strings"
)

// CLIError represents a user-friendly error with context and suggestions.
type CLIError struct {
	Message    string
	Suggestion string
	Cause      error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	if e.Suggestion != "" {
		sb.WriteString("\n\nSuggestion: ")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a new CLIError with a message and suggestion.
func NewCLIError(message, suggestion string) *CLIError {
	return &CLIError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapError wraps an existing error with additional context.
func WrapError(cause error, message, suggestion string) *CLIError {
	return &CLIError{
		Message:    message,
		Suggestion: suggestion,
		Cause:      cause,
	}
}

// =============================================================================
// Common CLI Errors
// =============================================================================

// ErrNotInitialized returns an error for uninitialized projects.
func ErrNotInitialized() *CLIError {
	return &CLIError{
		Message:    "kataforge has not been initialized in this project",
		Suggestion: "Run 'kataforge init' in your project root",
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(cause error) *CLIError {
	return &CLIError{
		Message:    "Configuration is invalid",
		Suggestion: "Check .kataforge/config.yaml and KATAFORGE_* environment variables, or run 'kataforge config' to inspect the file",
		Cause:      cause,
	}
}

// ErrInvalidProjectRoot returns an error for invalid project directory.
func ErrInvalidProjectRoot(path string) *CLIError {
	return &CLIError{
		Message:    fmt.Sprintf("Invalid project root: %s", path),
		Suggestion: "Ensure the path exists and is a directory. Use --project to specify a different path",
	}
}

// ErrUnknownLanguage returns an error for a language no handler serves.
func ErrUnknownLanguage(lang string, known []string) *CLIError {
	return &CLIError{
		Message:    fmt.Sprintf("Unknown language: %s", lang),
		Suggestion: fmt.Sprintf("Valid languages are: %s", strings.Join(known, ", ")),
	}
}

// ErrUnknownRewriter returns an error for an unregistered rewriter name.
func ErrUnknownRewriter(name string, known []string) *CLIError {
	return &CLIError{
		Message:    fmt.Sprintf("Unknown rewriter: %s", name),
		Suggestion: fmt.Sprintf("Valid rewriters are: %s", strings.Join(known, ", ")),
	}
}

// ErrRewriteFailed returns an error when source cannot be rewritten.
func ErrRewriteFailed(cause error) *CLIError {
	return &CLIError{
		Message:    "Failed to rewrite source",
		Suggestion: "Assertions with argument shapes the rewriter does not know must be converted by hand",
		Cause:      cause,
	}
}

// ErrHistoryDisabled returns an error for history commands when the
// history store is turned off.
func ErrHistoryDisabled() *CLIError {
	return &CLIError{
		Message:    "History is disabled",
		Suggestion: "Run 'kataforge config set history.enabled true' to enable it",
	}
}

// ErrHistoryUnavailable returns an error when the history store cannot be
// opened.
func ErrHistoryUnavailable(cause error) *CLIError {
	return &CLIError{
		Message:    "Cannot open the history database",
		Suggestion: "Check history.path and KATAFORGE_DATA_DIR, or disable history with 'kataforge config set history.enabled false'",
		Cause:      cause,
	}
}

// ErrWriteFromStdin returns an error for --write without an input file.
func ErrWriteFromStdin() *CLIError {
	return &CLIError{
		Message:    "Cannot write back source read from stdin",
		Suggestion: "Pass a file path, or drop --write and redirect the output",
	}
}
