package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kataforge-dev/kataforge/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config [get|set] [key] [value]",
	Short: "View or modify configuration",
	Long: `View or modify the project configuration in .kataforge/config.yaml.

Without arguments, displays the full configuration.
Use 'get <key>' to view a specific setting.
Use 'set <key> <value>' to modify a setting.

Keys use dot notation (e.g., python.lowering, batch.jobs).`,
	RunE: runConfig,
}

// Note: configCmd is NOT added to rootCmd here to allow standalone testing.
// The CLI main package should call RegisterConfigCommand() to enable `kataforge config`.

func runConfig(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(projectRoot)
	if !loader.Exists() {
		return ErrNotInitialized()
	}

	// No args - show full config
	if len(args) == 0 {
		return showFullConfig(cmd, loader)
	}

	subcommand := args[0]

	switch subcommand {
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("get requires a key argument")
		}
		return getConfigValue(cmd, loader, args[1])
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("set requires a key argument")
		}
		if len(args) < 3 {
			return fmt.Errorf("set requires a value argument")
		}
		return setConfigValue(cmd, loader, args[1], args[2])
	default:
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
}

func showFullConfig(cmd *cobra.Command, loader *config.Loader) error {
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	}

	return nil
}

func getConfigValue(cmd *cobra.Command, loader *config.Loader, key string) error {
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := getValueByKey(cfg, key)
	if err != nil {
		return err
	}

	if jsonOutput {
		result := map[string]interface{}{
			"key":   key,
			"value": value,
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal value to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		// For nested structures, output as YAML
		switch v := value.(type) {
		case config.PythonConfig, config.GoConfig, config.HistoryConfig, config.BatchConfig, config.RenderConfig:
			data, err := yaml.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to marshal value to YAML: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
		default:
			fmt.Fprintln(cmd.OutOrStdout(), value)
		}
	}

	return nil
}

func setConfigValue(cmd *cobra.Command, loader *config.Loader, key, value string) error {
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := setValueByKey(cfg, key, value); err != nil {
		return err
	}

	// Validate the updated config
	if validationErrs := config.Validate(cfg); validationErrs.HasErrors() {
		return validationErrs
	}

	// Save the config
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func unknownKey(parts []string) error {
	return fmt.Errorf("unknown key: %s", strings.Join(parts, "."))
}

func getValueByKey(cfg *config.Config, key string) (interface{}, error) {
	parts := strings.Split(key, ".")

	if len(parts) == 1 {
		switch parts[0] {
		case "version":
			return cfg.Version, nil
		case "default_language":
			return cfg.DefaultLanguage, nil
		case "log_level":
			return cfg.LogLevel, nil
		case "python":
			return cfg.Python, nil
		case "go":
			return cfg.Go, nil
		case "history":
			return cfg.History, nil
		case "batch":
			return cfg.Batch, nil
		case "render":
			return cfg.Render, nil
		}
		return nil, unknownKey(parts)
	}
	if len(parts) > 2 {
		return nil, unknownKey(parts)
	}

	switch key {
	case "python.lowering":
		return cfg.Python.Lowering, nil
	case "go.module":
		return cfg.Go.Module, nil
	case "history.enabled":
		return cfg.History.IsEnabled(), nil
	case "history.path":
		return cfg.History.Path, nil
	case "batch.jobs":
		return cfg.Batch.Jobs, nil
	case "render.pretty":
		return cfg.Render.Pretty, nil
	case "render.word_wrap":
		return cfg.Render.WordWrap, nil
	default:
		return nil, unknownKey(parts)
	}
}

func setValueByKey(cfg *config.Config, key, value string) error {
	parts := strings.Split(key, ".")

	switch key {
	case "default_language":
		cfg.DefaultLanguage = strings.ToLower(value)
	case "log_level":
		cfg.LogLevel = value
	case "python.lowering":
		cfg.Python.Lowering = value
	case "go.module":
		cfg.Go.Module = value
	case "history.enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for history.enabled: %s", value)
		}
		cfg.History.Enabled = &enabled
	case "history.path":
		cfg.History.Path = value
	case "batch.jobs":
		jobs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for batch.jobs: %s", value)
		}
		cfg.Batch.Jobs = jobs
	case "render.pretty":
		pretty, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for render.pretty: %s", value)
		}
		cfg.Render.Pretty = pretty
	case "render.word_wrap":
		wrap, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for render.word_wrap: %s", value)
		}
		cfg.Render.WordWrap = wrap
	default:
		return unknownKey(parts)
	}
	return nil
}
