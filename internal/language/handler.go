package language

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kataforge-dev/kataforge/internal/dialect"
	"github.com/kataforge-dev/kataforge/internal/markup"
	"github.com/kataforge-dev/kataforge/internal/models"
	"github.com/kataforge-dev/kataforge/internal/slug"
	"github.com/kataforge-dev/kataforge/internal/syntax"
)

// ErrUnknownVariant is returned when Edit is asked for a variant the
// language does not declare.
var ErrUnknownVariant = errors.New("unknown variant")

// TemplateReadme is the template of the rendered kata description.
const TemplateReadme = "readme"

// Handler plans and edits katas for one language.
type Handler struct {
	cfg          *Config
	classPattern *regexp2.Regexp
	rewriters    *dialect.Registry
	parser       *syntax.Parser
	logger       *slog.Logger
}

// Language returns the language identifier.
func (h *Handler) Language() string { return h.cfg.Language }

// DisplayName returns the human-readable language name.
func (h *Handler) DisplayName() string {
	if h.cfg.DisplayName == "" {
		return h.cfg.Language
	}
	return h.cfg.DisplayName
}

// Extension returns the source extension without the dot.
func (h *Handler) Extension() string { return h.cfg.Extension }

// Variants returns the declared rewriter variants, default first.
func (h *Handler) Variants() []string { return h.cfg.VariantNames() }

// Directory returns the kata directory for details:
// <dir><prefix><difficulty>kyu/<snake title>. Prefix and "kyu" are only
// added for numeric difficulties.
func (h *Handler) Directory(details models.KataDetails) string {
	var sb strings.Builder
	sb.WriteString(h.cfg.Directory)
	difficulty := strings.ToLower(details.Difficulty)
	if details.NumericDifficulty() {
		sb.WriteString(h.cfg.NumericPrefix)
		sb.WriteString(difficulty)
		sb.WriteString("kyu")
	} else {
		sb.WriteString(difficulty)
	}
	sb.WriteString("/")
	sb.WriteString(slug.Snake(details.Title))
	return sb.String()
}

// Plan lays out the files for details. The first file of details is the
// solution and the second the tests. A README is added when the details
// carry a description, rendered for this language.
func (h *Handler) Plan(ctx context.Context, details models.KataDetails) (*models.Plan, error) {
	if err := details.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid kata details: %w", err)
	}

	sources := map[string]string{
		contentsSolution: details.Files[0].Contents,
		contentsTests:    details.Files[1].Contents,
	}
	kataSlug := slug.Snake(details.Title)

	plan := &models.Plan{
		Language:  h.cfg.Language,
		Directory: h.Directory(details),
	}

	for _, fc := range h.cfg.Files {
		name := strings.ReplaceAll(fc.Name, "{slug}", kataSlug)
		if strings.Contains(name, "{class}") {
			class, err := h.className(ctx, sources[fc.Contents])
			if err != nil {
				return nil, err
			}
			if class == "" {
				class = fc.DefaultName
			}
			if class == "" {
				return nil, fmt.Errorf("no class found in %s source", fc.Contents)
			}
			name = strings.ReplaceAll(name, "{class}", class)
		}

		ext := fc.Extension
		if ext == "" {
			ext = h.cfg.Extension
		}

		plan.Files = append(plan.Files, models.SourceFile{
			Name:      name,
			Extension: ext,
			Template:  fc.Template,
			Contents:  sources[fc.Contents],
		})
	}

	if strings.TrimSpace(details.Description) != "" {
		readme, err := markup.Render(details.Description, h.cfg.Language)
		if err != nil {
			return nil, err
		}
		plan.Files = append(plan.Files, models.SourceFile{
			Name:      "README",
			Extension: "md",
			Template:  TemplateReadme,
			Contents:  readme,
		})
	}

	return plan, nil
}

// WithDuplicateSuffix returns a copy of plan for the n-th kata with the same
// directory. The directory always gains "_n". File names gain "_n", or a
// bare n for languages whose file names are class names. Fixed files and
// the README keep their names.
func (h *Handler) WithDuplicateSuffix(plan *models.Plan, n int) *models.Plan {
	c := plan.Clone()
	suffix := strconv.Itoa(n)
	c.Directory += "_" + suffix

	fileSuffix := "_" + suffix
	if h.cfg.DuplicateSuffix == suffixBare {
		fileSuffix = suffix
	}

	for i, f := range c.Files {
		if f.Template == TemplateReadme || h.fixed(f.Template) {
			continue
		}
		c.Files[i].Name = f.Name + fileSuffix
	}
	return c
}

func (h *Handler) fixed(template string) bool {
	for _, fc := range h.cfg.Files {
		if fc.Template == template {
			return fc.Fixed
		}
	}
	return false
}

// FormatArgs returns the arguments the file templates are filled with.
func (h *Handler) FormatArgs(plan *models.Plan, url string) map[string]string {
	solution, _ := plan.File(models.TemplateSolution)
	tests, _ := plan.File(models.TemplateTest)

	args := map[string]string{
		"codewars_url":       url,
		"solution_file_name": solution.Name,
		"solution":           solution.Contents,
		"tests":              tests.Contents,
	}

	for _, extra := range h.cfg.FormatArgs {
		switch extra {
		case argUpperFileName:
			args[argUpperFileName] = strings.ToUpper(solution.Name)
		case argPackageName:
			pkg := strings.TrimPrefix(plan.Directory, h.cfg.PackageRoot)
			args[argPackageName] = strings.ReplaceAll(pkg, "/", ".")
		}
	}
	return args
}

// EditOptions select how Edit rewrites a plan.
type EditOptions struct {
	// Variant picks a declared rewriter variant; empty uses the default.
	Variant string

	// GoModule is the module path kata packages are imported from.
	GoModule string
}

// Edit runs the declared rewriters over the plan's solution and tests and
// returns the edited copy. plan is not modified.
func (h *Handler) Edit(ctx context.Context, plan *models.Plan, opts EditOptions) (*models.Plan, error) {
	set, err := h.rewriterSet(opts.Variant)
	if err != nil {
		return nil, err
	}

	dopts := dialect.Options{
		Directory: plan.Directory,
		GoModule:  opts.GoModule,
	}

	out := plan.Clone()
	for i, f := range out.Files {
		var names []string
		switch f.Template {
		case models.TemplateSolution:
			names = set.Solution
		case models.TemplateTest:
			names = set.Tests
		}

		contents := f.Contents
		for _, name := range names {
			rw, err := h.rewriters.Get(name)
			if err != nil {
				return nil, err
			}

			start := time.Now()
			contents, err = rw.Rewrite(ctx, contents, dopts)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", f.FileName(), name, err)
			}
			h.logger.Debug("rewrote file",
				"file", f.FileName(),
				"rewriter", name,
				"bytes", len(contents),
				"duration", time.Since(start))
		}
		out.Files[i].Contents = contents
	}

	return out, nil
}

// Rewriters returns the rewriter names applied to files of template for
// variant.
func (h *Handler) Rewriters(template, variant string) ([]string, error) {
	set, err := h.rewriterSet(variant)
	if err != nil {
		return nil, err
	}
	switch template {
	case models.TemplateSolution:
		return set.Solution, nil
	case models.TemplateTest:
		return set.Tests, nil
	}
	return nil, nil
}

func (h *Handler) rewriterSet(variant string) (RewriterConfig, error) {
	if len(h.cfg.Variants) == 0 {
		if variant != "" {
			return RewriterConfig{}, fmt.Errorf("%w: %s has no variants, got %q", ErrUnknownVariant, h.cfg.Language, variant)
		}
		return h.cfg.Rewriters, nil
	}

	if variant == "" {
		variant = h.cfg.DefaultVariant
	}
	set, ok := h.cfg.Variants[variant]
	if !ok {
		return RewriterConfig{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownVariant, variant, strings.Join(h.cfg.VariantNames(), ", "))
	}
	return set, nil
}

// className finds the class declared by src, preferring the first public
// class. It returns "" when none is found.
func (h *Handler) className(ctx context.Context, src string) (string, error) {
	if h.cfg.ClassName.Grammar == string(syntax.LangJava) {
		name, err := h.javaClassName(ctx, src)
		if err != nil || name != "" {
			return name, err
		}
	}

	if h.classPattern == nil {
		return "", nil
	}
	m, err := h.classPattern.FindStringMatch(src)
	if err != nil {
		return "", fmt.Errorf("class_name.pattern: %w", err)
	}
	if m == nil || len(m.Groups()) < 2 {
		return "", nil
	}
	return m.GroupByNumber(1).String(), nil
}

func (h *Handler) javaClassName(ctx context.Context, src string) (string, error) {
	source := []byte(src)
	tree, err := h.parser.Parse(ctx, syntax.LangJava, source)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	var first, public string
	syntax.Walk(tree.RootNode(), func(n *sitter.Node) bool {
		if public != "" {
			return false
		}
		if n.Type() != "class_declaration" {
			return true
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return true
		}
		if first == "" {
			first = name.Content(source)
		}
		if isPublic(n, source) {
			public = name.Content(source)
		}
		return true
	})

	if public != "" {
		return public, nil
	}
	return first, nil
}

func isPublic(class *sitter.Node, source []byte) bool {
	for i := 0; i < int(class.ChildCount()); i++ {
		child := class.Child(i)
		if child.Type() == "modifiers" {
			for _, word := range strings.Fields(child.Content(source)) {
				if word == "public" {
					return true
				}
			}
		}
	}
	return false
}
