package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kataforge-dev/kataforge/internal/config"
	"github.com/kataforge-dev/kataforge/internal/dialect"
	"github.com/kataforge-dev/kataforge/internal/history"
	"github.com/kataforge-dev/kataforge/internal/language"
)

// legacyHistoryFile is the JSON history older releases kept in the
// project root.
const legacyHistoryFile = "history.json"

// appEnv is what every command that rewrites or plans works with.
type appEnv struct {
	cfg       *config.Config
	logger    *slog.Logger
	rewriters *dialect.Registry
	languages *language.Registry
	history   *history.Store
	// historyErr is the first open failure; the store is not retried.
	historyErr error
}

// newAppEnv resolves configuration, builds the logger on the command's
// error stream, and loads the language handlers.
func newAppEnv(cmd *cobra.Command) (*appEnv, error) {
	cfg, err := config.NewLoader(projectRoot).Resolve()
	if err != nil {
		return nil, ErrConfigInvalid(err)
	}
	if err := config.ValidateOrError(cfg); err != nil {
		return nil, ErrConfigInvalid(err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)

	rewriters := dialect.NewRegistry()
	languages, err := language.NewRegistry(rewriters, logger)
	if err != nil {
		return nil, err
	}

	return &appEnv{
		cfg:       cfg,
		logger:    logger,
		rewriters: rewriters,
		languages: languages,
	}, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	if IsVerbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openHistory opens and migrates the history store. It returns nil when
// history is disabled. The legacy history.json is imported on first use.
// A failed open is remembered and returned by later calls.
func (e *appEnv) openHistory(ctx context.Context) (*history.Store, error) {
	if e.historyErr != nil {
		return nil, e.historyErr
	}
	if e.history != nil || !e.cfg.History.IsEnabled() {
		return e.history, nil
	}

	path, err := config.HistoryPath(e.cfg, projectRoot)
	if err != nil {
		e.historyErr = ErrHistoryUnavailable(err)
		return nil, e.historyErr
	}

	store, err := history.OpenAndMigrate(ctx, path)
	if err != nil {
		e.historyErr = ErrHistoryUnavailable(err)
		return nil, e.historyErr
	}

	imported, err := store.ImportLegacy(ctx, filepath.Join(projectRoot, legacyHistoryFile))
	if err != nil {
		e.logger.Warn("failed to import legacy history", "error", err)
	} else if imported {
		e.logger.Info("imported legacy history", "path", legacyHistoryFile)
	}

	e.history = store
	return store, nil
}

func (e *appEnv) Close() {
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			e.logger.Warn("failed to close history", "error", err)
		}
		e.history = nil
	}
}

// handler picks the language handler. An explicit language wins, then the
// extension of file, then the previously used language, then
// default_language.
func (e *appEnv) handler(ctx context.Context, lang, file string) (*language.Handler, error) {
	if lang == "" && file != "" {
		if h, ok := e.languages.HandlerForExtension(filepath.Ext(file)); ok {
			return h, nil
		}
	}

	if lang == "" {
		lang = e.cfg.DefaultLanguage
		store, err := e.openHistory(ctx)
		if err != nil {
			e.logger.Warn("history unavailable, using default language", "error", err)
		}
		if store != nil {
			lang, err = store.PreviousLanguage(ctx, lang)
			if err != nil {
				return nil, err
			}
		}
	}

	h, err := e.languages.Get(lang)
	if errors.Is(err, language.ErrUnknownLanguage) {
		return nil, ErrUnknownLanguage(lang, e.languages.Languages())
	}
	return h, err
}

// variant returns the rewriter variant for h: the explicit lowering, else
// the configured python lowering for handlers that declare it.
func (e *appEnv) variant(h *language.Handler, lowering string) string {
	if lowering != "" {
		return lowering
	}
	for _, v := range h.Variants() {
		if v == e.cfg.Python.Lowering {
			return v
		}
	}
	return ""
}

// remember stores lang as the previously used language. Failures are
// logged only.
func (e *appEnv) remember(ctx context.Context, lang string) {
	store, err := e.openHistory(ctx)
	if err != nil || store == nil {
		return
	}
	if err := store.SetPreviousLanguage(ctx, lang); err != nil {
		e.logger.Warn("failed to save previous language", "error", err)
	}
}

// record logs an applied rewrite. Failures are logged only.
func (e *appEnv) record(ctx context.Context, r history.Rewrite) {
	store, err := e.openHistory(ctx)
	if err != nil || store == nil {
		return
	}
	if _, err := store.RecordRewrite(ctx, r); err != nil {
		e.logger.Warn("failed to record rewrite", "error", err)
	}
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
