package language

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config declares how katas in one language are laid out on disk and which
// rewriters adapt their sources.
type Config struct {
	// Language is the unique identifier, also used as the markup language
	// (e.g., "python", "cpp")
	Language string `yaml:"language"`

	// DisplayName is the human-readable name (e.g., "C++")
	DisplayName string `yaml:"display_name"`

	// Extension is the source file extension without the dot
	Extension string `yaml:"extension"`

	// Directory is the slash-terminated folder katas are created under
	Directory string `yaml:"directory"`

	// PackageRoot is stripped from the kata directory to derive a JVM
	// package name
	PackageRoot string `yaml:"package_root"`

	// NumericPrefix is prepended to numeric difficulty folders so they are
	// valid identifiers (e.g., "_6kyu")
	NumericPrefix string `yaml:"numeric_prefix"`

	// DuplicateSuffix is "underscore" (default) or "bare"
	DuplicateSuffix string `yaml:"duplicate_suffix"`

	// ClassName finds the public class name used for {class} file names
	ClassName ClassNameConfig `yaml:"class_name"`

	// Files lists the files created for a kata, in order
	Files []FileConfig `yaml:"files"`

	// FormatArgs names extra template arguments beyond the common ones
	FormatArgs []string `yaml:"format_args"`

	// Rewriters run when no variant applies
	Rewriters RewriterConfig `yaml:"rewriters"`

	// Variants are alternative rewriter sets selected by name
	Variants map[string]RewriterConfig `yaml:"variants"`

	// DefaultVariant is used when no variant is requested
	DefaultVariant string `yaml:"default_variant"`
}

// ClassNameConfig locates a class declaration in a source file.
type ClassNameConfig struct {
	// Grammar selects tree-sitter detection (only "java" is supported)
	Grammar string `yaml:"grammar"`

	// Pattern is used when no grammar is set or the grammar finds nothing.
	// The first group is the class name.
	Pattern string `yaml:"pattern"`
}

// FileConfig declares one file of a kata.
type FileConfig struct {
	// Name may contain {slug} and {class}
	Name string `yaml:"name"`

	// Template is the template the file is created from
	Template string `yaml:"template"`

	// Contents is "solution", "tests" or empty
	Contents string `yaml:"contents"`

	// Extension overrides the language extension
	Extension string `yaml:"extension"`

	// DefaultName replaces {class} when no class is found
	DefaultName string `yaml:"default_name"`

	// Fixed files keep their name when a duplicate suffix is applied
	Fixed bool `yaml:"fixed"`
}

// RewriterConfig names the dialect rewriters run over each file kind.
type RewriterConfig struct {
	Solution []string `yaml:"solution"`
	Tests    []string `yaml:"tests"`
}

const (
	suffixUnderscore = "underscore"
	suffixBare       = "bare"

	contentsSolution = "solution"
	contentsTests    = "tests"

	argUpperFileName = "solution_file_name_upper"
	argPackageName   = "package_name"
)

// ParseConfig parses YAML data into a Config and validates it.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.Language = strings.ToLower(cfg.Language)
	cfg.Extension = strings.TrimPrefix(strings.ToLower(cfg.Extension), ".")
	if cfg.DuplicateSuffix == "" {
		cfg.DuplicateSuffix = suffixUnderscore
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var missing []string

	if c.Language == "" {
		missing = append(missing, "language")
	}
	if c.Extension == "" {
		missing = append(missing, "extension")
	}
	if c.Directory == "" {
		missing = append(missing, "directory")
	}
	if len(c.Files) == 0 {
		missing = append(missing, "files")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if !strings.HasSuffix(c.Directory, "/") {
		return fmt.Errorf("directory must end with a slash: %s", c.Directory)
	}

	if c.DuplicateSuffix != suffixUnderscore && c.DuplicateSuffix != suffixBare {
		return fmt.Errorf("invalid duplicate_suffix: %s (valid values: underscore, bare)", c.DuplicateSuffix)
	}

	var hasSolution, hasTests, usesClass bool
	for i, f := range c.Files {
		if f.Name == "" || f.Template == "" {
			return fmt.Errorf("files[%d]: name and template are required", i)
		}
		switch f.Contents {
		case contentsSolution:
			hasSolution = true
		case contentsTests:
			hasTests = true
		case "":
		default:
			return fmt.Errorf("files[%d]: invalid contents: %s (valid values: solution, tests)", i, f.Contents)
		}
		if strings.Contains(f.Name, "{class}") {
			usesClass = true
			if f.Contents == "" {
				return fmt.Errorf("files[%d]: {class} needs a contents source", i)
			}
		}
	}
	if !hasSolution || !hasTests {
		return fmt.Errorf("files must include a solution and a tests source")
	}

	if usesClass && c.ClassName.Pattern == "" && c.ClassName.Grammar == "" {
		return fmt.Errorf("class_name is required when a file name uses {class}")
	}
	if c.ClassName.Grammar != "" && c.ClassName.Grammar != "java" {
		return fmt.Errorf("invalid class_name.grammar: %s (valid values: java)", c.ClassName.Grammar)
	}

	for _, arg := range c.FormatArgs {
		if arg != argUpperFileName && arg != argPackageName {
			return fmt.Errorf("unknown format argument: %s", arg)
		}
	}

	if c.DefaultVariant != "" {
		if _, ok := c.Variants[c.DefaultVariant]; !ok {
			return fmt.Errorf("default_variant %s is not declared in variants", c.DefaultVariant)
		}
	}

	return nil
}

// VariantNames returns the declared variant names; the default comes first.
func (c *Config) VariantNames() []string {
	var names []string
	for name := range c.Variants {
		if name != c.DefaultVariant {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if c.DefaultVariant != "" {
		names = append([]string{c.DefaultVariant}, names...)
	}
	return names
}
