// Package language decides where a kata lives on disk for each
// implementation language and which rewriters adapt its sources.
//
// Languages are declared in embedded YAML files (languages/*.yaml) so a new
// language needs no code unless it needs a new rewriter.
package language

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/kataforge-dev/kataforge/internal/dialect"
	"github.com/kataforge-dev/kataforge/internal/rule"
	"github.com/kataforge-dev/kataforge/internal/syntax"
)

// ErrUnknownLanguage is returned when no handler is registered for a
// language or extension.
var ErrUnknownLanguage = errors.New("unknown language")

//go:embed languages/*.yaml
var builtin embed.FS

// Registry holds one handler per language.
type Registry struct {
	handlers  map[string]*Handler
	byExt     map[string]*Handler
	rewriters *dialect.Registry
	parser    *syntax.Parser
	logger    *slog.Logger
}

// NewRegistry loads the built-in language declarations. Rewriter names are
// resolved against rewriters when a plan is edited.
func NewRegistry(rewriters *dialect.Registry, logger *slog.Logger) (*Registry, error) {
	if rewriters == nil {
		rewriters = dialect.NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	parser, err := syntax.NewParser()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		handlers:  make(map[string]*Handler),
		byExt:     make(map[string]*Handler),
		rewriters: rewriters,
		parser:    parser,
		logger:    logger,
	}

	entries, err := builtin.ReadDir("languages")
	if err != nil {
		return nil, fmt.Errorf("failed to read language declarations: %w", err)
	}
	for _, entry := range entries {
		data, err := builtin.ReadFile(path.Join("languages", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		cfg, err := ParseConfig(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		if err := r.Register(cfg); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", entry.Name(), err)
		}
	}

	return r, nil
}

// Register adds or replaces the handler for cfg.Language. Every rewriter
// name must be known to the registry's rewriters.
func (r *Registry) Register(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	sets := []RewriterConfig{cfg.Rewriters}
	for _, v := range cfg.Variants {
		sets = append(sets, v)
	}
	for _, set := range sets {
		for _, name := range append(append([]string(nil), set.Solution...), set.Tests...) {
			if _, err := r.rewriters.Get(name); err != nil {
				return err
			}
		}
	}

	h := &Handler{
		cfg:       cfg,
		rewriters: r.rewriters,
		parser:    r.parser,
		logger:    r.logger.With("language", cfg.Language),
	}
	if cfg.ClassName.Pattern != "" {
		re, err := rule.Compile(cfg.ClassName.Pattern, regexp2.None)
		if err != nil {
			return fmt.Errorf("class_name.pattern: %w", err)
		}
		h.classPattern = re
	}

	if old, ok := r.handlers[cfg.Language]; ok {
		delete(r.byExt, old.cfg.Extension)
	}
	r.handlers[cfg.Language] = h
	r.byExt[cfg.Extension] = h
	return nil
}

// Handler returns the handler for lang.
func (r *Registry) Handler(lang string) (*Handler, bool) {
	h, ok := r.handlers[strings.ToLower(lang)]
	return h, ok
}

// Get is Handler with an error naming the known languages.
func (r *Registry) Get(lang string) (*Handler, error) {
	h, ok := r.Handler(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownLanguage, lang, strings.Join(r.Languages(), ", "))
	}
	return h, nil
}

// HandlerForExtension returns the handler whose sources use ext. A leading
// dot is ignored.
func (r *Registry) HandlerForExtension(ext string) (*Handler, bool) {
	h, ok := r.byExt[strings.TrimPrefix(strings.ToLower(ext), ".")]
	return h, ok
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
