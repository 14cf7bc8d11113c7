package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kataforge-dev/kataforge/internal/batch"
	"github.com/kataforge-dev/kataforge/internal/dialect"
	"github.com/kataforge-dev/kataforge/internal/history"
	"github.com/kataforge-dev/kataforge/internal/language"
	"github.com/kataforge-dev/kataforge/internal/models"
)

var (
	rewriteLang     string
	rewriteRewriter string
	rewriteLowering string
	rewriteDir      string
	rewriteSolution bool
	rewriteWrite    bool
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [file|-]",
	Short: "Rewrite kata test source into a local test framework",
	Long: `Rewrite kata source read from a file or stdin and print the result.

The language comes from --lang, then the file extension, then the language
used last, then default_language. Its declared rewriters run in order;
--rewriter runs a single rewriter by name instead.

Examples:
  kataforge rewrite test_kata.py
  kataforge rewrite --lang python --lowering unittest < tests.py
  kataforge rewrite --lang go --dir katas/6kyu/multiply kata_test.go
  kataforge rewrite --rewriter igloo-catch2 tests.cpp --write`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteLang, "lang", "l", "", "Kata language")
	rewriteCmd.Flags().StringVarP(&rewriteRewriter, "rewriter", "r", "", "Run only this rewriter")
	rewriteCmd.Flags().StringVar(&rewriteLowering, "lowering", "", "Rewriter variant (python: pytest, unittest)")
	rewriteCmd.Flags().StringVar(&rewriteDir, "dir", "", "Kata directory relative to the project root (default: the file's directory)")
	rewriteCmd.Flags().BoolVar(&rewriteSolution, "solution", false, "Treat the input as a solution instead of tests")
	rewriteCmd.Flags().BoolVarP(&rewriteWrite, "write", "w", false, "Write the result back to the file")
	rootCmd.AddCommand(rewriteCmd)
}

// RewriteResult is the outcome of the rewrite command
type RewriteResult struct {
	File      string   `json:"file,omitempty"`
	Language  string   `json:"language,omitempty"`
	Rewriters []string `json:"rewriters"`
	Changed   bool     `json:"changed"`
	Written   bool     `json:"written"`
	Output    string   `json:"output"`
}

func runRewrite(cmd *cobra.Command, args []string) error {
	var file string
	if len(args) == 1 && args[0] != "-" {
		file = args[0]
	}
	if rewriteWrite && file == "" {
		return ErrWriteFromStdin()
	}

	env, err := newAppEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	src, err := readInput(cmd, file)
	if err != nil {
		return WrapError(err, "Failed to read input", "Pass a readable file or pipe the source on stdin")
	}

	dir := rewriteDir
	if dir == "" && file != "" {
		dir = kataDirectory(file)
	}

	var result RewriteResult
	if rewriteRewriter != "" {
		result, err = env.rewriteWith(ctx, rewriteRewriter, src, dir)
	} else {
		result, err = env.rewriteAs(ctx, file, src, dir)
	}
	if err != nil {
		return err
	}
	result.File = file

	if rewriteWrite && result.Changed {
		if err := batch.WriteFileAtomic(file, []byte(result.Output)); err != nil {
			return WrapError(err, "Failed to write "+file, "Check the file permissions")
		}
		result.Written = true
	}

	if result.Changed {
		env.record(ctx, history.NewRewrite(result.Language, strings.Join(result.Rewriters, "+"), file, src, result.Output))
	}
	if result.Language != "" {
		env.remember(ctx, result.Language)
	}

	out := NewOutputFormatter(cmd)
	switch {
	case IsJSONOutput():
		return out.JSON(result)
	case rewriteWrite && result.Written:
		out.Success("Rewrote %s with %s", file, strings.Join(result.Rewriters, ", "))
	case rewriteWrite:
		out.Info("%s is already converted", file)
	default:
		out.Source(result.Output)
	}
	return nil
}

// rewriteAs runs the handler's rewriters over src.
func (e *appEnv) rewriteAs(ctx context.Context, file, src, dir string) (RewriteResult, error) {
	h, err := e.handler(ctx, rewriteLang, file)
	if err != nil {
		return RewriteResult{}, err
	}

	template := models.TemplateTest
	if rewriteSolution {
		template = models.TemplateSolution
	}

	variant := e.variant(h, rewriteLowering)
	names, err := h.Rewriters(template, variant)
	if err != nil {
		if errors.Is(err, language.ErrUnknownVariant) {
			return RewriteResult{}, WrapError(err, "Invalid lowering", "Valid lowerings for "+h.Language()+" are: "+strings.Join(h.Variants(), ", "))
		}
		return RewriteResult{}, err
	}

	plan := &models.Plan{
		Language:  h.Language(),
		Directory: dir,
		Files:     []models.SourceFile{{Name: "input", Template: template, Contents: src}},
	}
	edited, err := h.Edit(ctx, plan, language.EditOptions{Variant: variant, GoModule: e.cfg.Go.Module})
	if err != nil {
		return RewriteResult{}, ErrRewriteFailed(err)
	}

	output := edited.Files[0].Contents
	return RewriteResult{
		Language:  h.Language(),
		Rewriters: names,
		Changed:   output != src,
		Output:    output,
	}, nil
}

// rewriteWith runs the single rewriter name over src.
func (e *appEnv) rewriteWith(ctx context.Context, name, src, dir string) (RewriteResult, error) {
	rw, err := e.rewriters.Get(name)
	if errors.Is(err, dialect.ErrUnknownRewriter) {
		return RewriteResult{}, ErrUnknownRewriter(name, e.rewriters.Names())
	}
	if err != nil {
		return RewriteResult{}, err
	}

	output, err := rw.Rewrite(ctx, src, dialect.Options{Directory: dir, GoModule: e.cfg.Go.Module})
	if err != nil {
		return RewriteResult{}, ErrRewriteFailed(err)
	}

	return RewriteResult{
		Language:  strings.ToLower(rewriteLang),
		Rewriters: []string{name},
		Changed:   output != src,
		Output:    output,
	}, nil
}

// kataDirectory returns the slash-separated directory of file relative to
// the project root, or "" when file lies outside it.
func kataDirectory(file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		return ""
	}
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(root, filepath.Dir(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
