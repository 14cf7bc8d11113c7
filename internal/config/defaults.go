package config

import "github.com/kataforge-dev/kataforge/internal/dialect"

// Default returns a Config with sensible default values
func Default() *Config {
	enabled := true
	return &Config{
		Version:         1,
		DefaultLanguage: "python",
		LogLevel:        "info",
		Python: PythonConfig{
			Lowering: "pytest",
		},
		Go: GoConfig{
			Module: dialect.DefaultGoModule,
		},
		History: HistoryConfig{
			Enabled: &enabled,
			Path:    "", // empty = <data dir>/history.db
		},
		Batch: BatchConfig{
			Jobs: 4,
		},
		Render: RenderConfig{
			Pretty:   false,
			WordWrap: 80,
		},
	}
}
