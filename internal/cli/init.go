package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kataforge-dev/kataforge/internal/config"
	"github.com/kataforge-dev/kataforge/internal/history"
	"github.com/spf13/cobra"
)

// projectHistoryPath is the history.path init writes: a database kept with
// the project instead of the user data directory.
var projectHistoryPath = filepath.Join(config.ProjectDir, config.HistoryFileName)

var initLocalHistory bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kataforge in the current project",
	Long: `Initialize kataforge by creating a .kataforge directory with a default
configuration.

The init command will:
  - Create the .kataforge directory
  - Generate a default config.yaml file
  - Create the history database and migrate its schema
  - Import a history.json left in the project root by older releases`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd, GetProjectRoot(), initLocalHistory, IsJSONOutput())
	},
}

func init() {
	initCmd.Flags().BoolVar(&initLocalHistory, "local-history", false, "Keep the history database in .kataforge instead of the user data directory")
	rootCmd.AddCommand(initCmd)
}

// runInit performs the initialization logic
// projectRoot is the directory to initialize kataforge in
// localHistory stores the history database under .kataforge
// jsonOutput controls whether output is in JSON format
func runInit(cmd *cobra.Command, projectRoot string, localHistory, jsonOutput bool) error {
	out := NewOutputFormatter(cmd)

	// Check if directory exists
	info, err := os.Stat(projectRoot)
	if err != nil || !info.IsDir() {
		return ErrInvalidProjectRoot(projectRoot)
	}

	loader := config.NewLoader(projectRoot)
	configPath := loader.ConfigPath()

	// Check if already initialized
	if loader.Exists() {
		msg := fmt.Sprintf("kataforge already initialized at %s", loader.ProjectDirPath())
		if jsonOutput {
			return out.JSON(InitResult{
				Success:     false,
				ProjectRoot: projectRoot,
				ConfigPath:  configPath,
				Message:     msg,
			})
		}
		out.Warn("%s", msg)
		return nil
	}

	// Create default config
	cfg := config.Default()
	if localHistory {
		cfg.History.Path = projectHistoryPath
	}
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	result := InitResult{
		Success:     true,
		ProjectRoot: projectRoot,
		ConfigPath:  configPath,
		Message:     "Initialized kataforge successfully",
	}

	// Initialize history
	if cfg.History.IsEnabled() {
		dbPath, imported, err := initHistory(cmd.Context(), cfg, projectRoot)
		if err != nil {
			return err
		}
		result.HistoryPath = dbPath
		result.ImportedLegacy = imported
	}

	// Output success
	if jsonOutput {
		return out.JSON(result)
	}

	out.Success("Initialized kataforge in %s", loader.ProjectDirPath())
	if result.HistoryPath != "" {
		out.Info("History: %s", result.HistoryPath)
	}
	if result.ImportedLegacy {
		out.Info("Imported previous language from %s", legacyHistoryFile)
	}
	return nil
}

func initHistory(ctx context.Context, cfg *config.Config, projectRoot string) (string, bool, error) {
	path, err := config.HistoryPath(cfg, projectRoot)
	if err != nil {
		return "", false, ErrHistoryUnavailable(err)
	}

	store, err := history.OpenAndMigrate(ctx, path)
	if err != nil {
		return "", false, ErrHistoryUnavailable(err)
	}
	defer store.Close()

	imported, err := store.ImportLegacy(ctx, filepath.Join(projectRoot, legacyHistoryFile))
	if err != nil {
		return "", false, fmt.Errorf("failed to import %s: %w", legacyHistoryFile, err)
	}
	return path, imported, nil
}

// InitResult represents the result of an init operation for JSON output
type InitResult struct {
	Success        bool   `json:"success"`
	ProjectRoot    string `json:"project_root"`
	ConfigPath     string `json:"config_path"`
	HistoryPath    string `json:"history_path,omitempty"`
	ImportedLegacy bool   `json:"imported_legacy,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}
