// Package batch rewrites every test file under a directory concurrently.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kataforge-dev/kataforge/internal/history"
	"github.com/kataforge-dev/kataforge/internal/language"
	"github.com/kataforge-dev/kataforge/internal/models"
)

// Recorder logs applied rewrites. *history.Store implements it.
type Recorder interface {
	RecordRewrite(ctx context.Context, r history.Rewrite) (history.Rewrite, error)
}

// Options control one conversion.
type Options struct {
	// Write replaces changed files on disk.
	Write bool

	// Variant selects a rewriter variant (python: pytest, unittest). It is
	// ignored for languages that declare no variants.
	Variant string

	// GoModule is passed to the Go harness rewriter.
	GoModule string
}

// Result is the outcome for one file. Paths are slash-separated and
// relative to the converted root.
type Result struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Rewriters []string `json:"rewriters"`
	Changed   bool     `json:"changed"`
	Written   bool     `json:"written"`
	Output    string   `json:"-"`
	Err       error    `json:"-"`
	Error     string   `json:"error,omitempty"`
}

// Converter fans rewrites out over a bounded number of goroutines.
type Converter struct {
	Registry *language.Registry
	Jobs     int
	Logger   *slog.Logger
	Recorder Recorder
}

var skippedDirs = map[string]bool{
	".git":         true,
	".kataforge":   true,
	"node_modules": true,
	"__pycache__":  true,
	"target":       true,
}

// IsTestFile reports whether name looks like a kata test file:
// test_x, x_test, x.test or (JVM) XTest, before the extension.
func IsTestFile(name string) bool {
	base := strings.TrimSuffix(name, path.Ext(name))
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, "_test") ||
		strings.HasSuffix(base, ".test") ||
		(len(base) > len("Test") && strings.HasSuffix(base, "Test"))
}

type job struct {
	abs     string
	rel     string
	handler *language.Handler
}

// Convert rewrites the test files under root. Per-file rewrite failures are
// reported in the results; walking, writing and cancellation errors abort.
// Results are sorted by path.
func (c *Converter) Convert(ctx context.Context, root string, opts Options) ([]Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	jobs, err := c.collect(root)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	limit := c.Jobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	// Each goroutine owns results[i]
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(limit, len(jobs)))

	start := time.Now()
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := c.convertFile(gctx, j, opts, logger)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Path < results[b].Path })

	logger.Info("converted directory",
		"root", root,
		"files", len(results),
		"duration", time.Since(start))
	return results, nil
}

func (c *Converter) collect(root string) ([]job, error) {
	var jobs []job
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsTestFile(d.Name()) {
			return nil
		}
		h, ok := c.Registry.HandlerForExtension(filepath.Ext(d.Name()))
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{abs: p, rel: filepath.ToSlash(rel), handler: h})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return jobs, nil
}

func (c *Converter) convertFile(ctx context.Context, j job, opts Options, logger *slog.Logger) (Result, error) {
	res := Result{Path: j.rel, Language: j.handler.Language()}

	variant := opts.Variant
	if len(j.handler.Variants()) == 0 {
		variant = ""
	}

	rewriters, err := j.handler.Rewriters(models.TemplateTest, variant)
	if err != nil {
		return res, err
	}
	res.Rewriters = rewriters
	if len(rewriters) == 0 {
		return res, nil
	}

	data, err := os.ReadFile(j.abs)
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", j.rel, err)
	}
	input := string(data)

	name := path.Base(j.rel)
	plan := &models.Plan{
		Language:  j.handler.Language(),
		Directory: path.Dir(j.rel),
		Files: []models.SourceFile{{
			Name:      strings.TrimSuffix(name, path.Ext(name)),
			Extension: strings.TrimPrefix(path.Ext(name), "."),
			Template:  models.TemplateTest,
			Contents:  input,
		}},
	}

	edited, err := j.handler.Edit(ctx, plan, language.EditOptions{Variant: variant, GoModule: opts.GoModule})
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		logger.Warn("rewrite failed", "file", j.rel, "error", err)
		res.Err = err
		res.Error = err.Error()
		return res, nil
	}

	res.Output = edited.Files[0].Contents
	res.Changed = res.Output != input
	if !res.Changed {
		return res, nil
	}

	if opts.Write {
		if err := WriteFileAtomic(j.abs, []byte(res.Output)); err != nil {
			return res, err
		}
		res.Written = true
	}

	if c.Recorder != nil {
		rec := history.NewRewrite(res.Language, strings.Join(rewriters, "+"), j.rel, input, res.Output)
		if _, err := c.Recorder.RecordRewrite(ctx, rec); err != nil {
			logger.Warn("failed to record rewrite", "file", j.rel, "error", err)
		}
	}

	return res, nil
}

// WriteFileAtomic replaces path with data through a temporary file in the
// same directory, keeping the original permissions.
func WriteFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set mode on %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
