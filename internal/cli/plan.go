package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kataforge-dev/kataforge/internal/batch"
	"github.com/kataforge-dev/kataforge/internal/history"
	"github.com/kataforge-dev/kataforge/internal/language"
	"github.com/kataforge-dev/kataforge/internal/models"
)

var (
	planLang        string
	planTitle       string
	planDifficulty  string
	planSolution    string
	planTests       string
	planDescription string
	planURL         string
	planLowering    string
	planWrite       bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Lay out the files of a kata",
	Long: `Lay out the files of a kata for one language and rewrite its tests.

The kata directory is <language dir>/<difficulty>kyu/<snake title>. When it
already exists, a numeric suffix is added. With --write the files are
created under the project root.

Examples:
  kataforge plan --lang python --title "Multiply" --difficulty 8 \
    --solution solution.py --tests tests.py --write
  kataforge plan --lang java --title "Sum Arrays" --difficulty beta \
    --solution Kata.java --tests KataTest.java --description README.md`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planLang, "lang", "l", "", "Kata language (default: the language used last)")
	planCmd.Flags().StringVarP(&planTitle, "title", "t", "", "Kata title")
	planCmd.Flags().StringVarP(&planDifficulty, "difficulty", "d", "", "Kata difficulty: a kyu rank such as 6, or a label such as beta")
	planCmd.Flags().StringVar(&planSolution, "solution", "", "File holding the solution source")
	planCmd.Flags().StringVar(&planTests, "tests", "", "File holding the test source")
	planCmd.Flags().StringVar(&planDescription, "description", "", "File holding the kata description")
	planCmd.Flags().StringVar(&planURL, "url", "", "Kata URL")
	planCmd.Flags().StringVar(&planLowering, "lowering", "", "Rewriter variant (python: pytest, unittest)")
	planCmd.Flags().BoolVarP(&planWrite, "write", "w", false, "Create the files")
	_ = planCmd.MarkFlagRequired("title")
	_ = planCmd.MarkFlagRequired("difficulty")
	_ = planCmd.MarkFlagRequired("solution")
	_ = planCmd.MarkFlagRequired("tests")
	rootCmd.AddCommand(planCmd)
}

// PlanResult is the outcome of the plan command
type PlanResult struct {
	Plan       *models.Plan      `json:"plan"`
	Paths      []string          `json:"paths"`
	FormatArgs map[string]string `json:"format_args"`
	Duplicate  int               `json:"duplicate,omitempty"`
	Written    bool              `json:"written"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	env, err := newAppEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	h, err := env.handler(ctx, planLang, "")
	if err != nil {
		return err
	}

	details, err := readKataDetails(cmd)
	if err != nil {
		return err
	}

	plan, err := h.Plan(ctx, details)
	if err != nil {
		return WrapError(err, "Failed to plan kata", "Check the title, difficulty and sources")
	}

	variant := env.variant(h, planLowering)
	edited, err := h.Edit(ctx, plan, language.EditOptions{Variant: variant, GoModule: env.cfg.Go.Module})
	if errors.Is(err, language.ErrUnknownVariant) {
		return WrapError(err, "Invalid lowering", "Valid lowerings for "+h.Language()+" are: "+strings.Join(h.Variants(), ", "))
	}
	if err != nil {
		return ErrRewriteFailed(err)
	}

	result := PlanResult{Plan: edited}
	for n := 1; dirExists(filepath.Join(projectRoot, filepath.FromSlash(result.Plan.Directory))); n++ {
		result.Plan = h.WithDuplicateSuffix(edited, n)
		result.Duplicate = n
	}
	result.Paths = result.Plan.Paths()
	result.FormatArgs = h.FormatArgs(result.Plan, planURL)

	if planWrite {
		if err := writePlan(result.Plan); err != nil {
			return err
		}
		result.Written = true

		for i, f := range edited.Files {
			before := plan.Files[i].Contents
			if f.Contents == before {
				continue
			}
			names, _ := h.Rewriters(f.Template, variant)
			env.record(ctx, history.NewRewrite(h.Language(), strings.Join(names, "+"), result.Paths[i], before, f.Contents))
		}
		env.remember(ctx, h.Language())
	}

	out := NewOutputFormatter(cmd)
	if IsJSONOutput() {
		return out.JSON(result)
	}

	out.Info("Directory: %s", result.Plan.Directory)
	rows := make([][]string, len(result.Plan.Files))
	for i, f := range result.Plan.Files {
		rows[i] = []string{result.Paths[i], f.Template, fmt.Sprintf("%d", len(f.Contents))}
	}
	out.Table([]string{"FILE", "TEMPLATE", "BYTES"}, rows)

	keys := make([]string, 0, len(result.FormatArgs))
	for k := range result.FormatArgs {
		if k == "solution" || k == "tests" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Info("%s: %s", k, result.FormatArgs[k])
	}

	if result.Duplicate > 0 {
		out.Warn("Kata directory exists, using suffix %d", result.Duplicate)
	}
	if result.Written {
		out.Success("Created %d files in %s", len(result.Paths), result.Plan.Directory)
	}
	return nil
}

func readKataDetails(cmd *cobra.Command) (models.KataDetails, error) {
	details := models.KataDetails{
		Title:      planTitle,
		Difficulty: planDifficulty,
		URL:        planURL,
	}

	for _, src := range []struct {
		file     string
		template string
	}{
		{planSolution, models.TemplateSolution},
		{planTests, models.TemplateTest},
	} {
		contents, err := readInput(cmd, src.file)
		if err != nil {
			return details, WrapError(err, "Failed to read "+src.template+" source", "Check the --solution and --tests paths")
		}
		details.Files = append(details.Files, models.SourceFile{Template: src.template, Contents: contents})
	}

	if planDescription != "" {
		description, err := os.ReadFile(planDescription)
		if err != nil {
			return details, WrapError(err, "Failed to read description", "Check the --description path")
		}
		details.Description = string(description)
	}
	return details, nil
}

func writePlan(plan *models.Plan) error {
	dir := filepath.Join(projectRoot, filepath.FromSlash(plan.Directory))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapError(err, "Failed to create "+plan.Directory, "Check the project root permissions")
	}
	for _, f := range plan.Files {
		if err := batch.WriteFileAtomic(filepath.Join(dir, f.FileName()), []byte(f.Contents)); err != nil {
			return WrapError(err, "Failed to write "+f.FileName(), "Check the project root permissions")
		}
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
