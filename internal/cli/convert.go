package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kataforge-dev/kataforge/internal/batch"
	"github.com/kataforge-dev/kataforge/internal/language"
)

var (
	convertWrite    bool
	convertJobs     int
	convertLowering string
)

var convertCmd = &cobra.Command{
	Use:   "convert <dir>",
	Short: "Rewrite every kata test file under a directory",
	Long: `Rewrite the test files under a directory concurrently.

Test files are named test_*, *_test, *.test.* or *Test, and their language
is picked by extension. Without --write nothing is changed on disk and the
command reports what would be rewritten.

Examples:
  kataforge convert katas/
  kataforge convert katas/ --write --jobs 8 --lowering unittest`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVarP(&convertWrite, "write", "w", false, "Replace changed files")
	convertCmd.Flags().IntVarP(&convertJobs, "jobs", "j", 0, "Files rewritten in parallel (default: batch.jobs)")
	convertCmd.Flags().StringVar(&convertLowering, "lowering", "", "Python lowering (default: python.lowering)")
	rootCmd.AddCommand(convertCmd)
}

// ConvertResult is the outcome of the convert command
type ConvertResult struct {
	Root    string         `json:"root"`
	Files   []batch.Result `json:"files"`
	Changed int            `json:"changed"`
	Written int            `json:"written"`
	Failed  int            `json:"failed"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	root := args[0]
	if !filepath.IsAbs(root) {
		root = filepath.Join(projectRoot, root)
	}
	if !dirExists(root) {
		return NewCLIError(fmt.Sprintf("Not a directory: %s", args[0]), "Pass the directory holding the kata tests")
	}

	env, err := newAppEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	jobs := convertJobs
	if jobs <= 0 {
		jobs = env.cfg.Batch.Jobs
	}
	conv := &batch.Converter{
		Registry: env.languages,
		Jobs:     jobs,
		Logger:   env.logger,
	}

	store, err := env.openHistory(ctx)
	if err != nil {
		env.logger.Warn("history unavailable, rewrites are not recorded", "error", err)
	}
	if store != nil {
		conv.Recorder = store
	}

	lowering := convertLowering
	if lowering == "" {
		lowering = env.cfg.Python.Lowering
	}

	results, err := conv.Convert(ctx, root, batch.Options{
		Write:    convertWrite,
		Variant:  lowering,
		GoModule: env.cfg.Go.Module,
	})
	if errors.Is(err, language.ErrUnknownVariant) {
		return WrapError(err, "Invalid lowering", "Valid lowerings are: pytest, unittest")
	}
	if err != nil {
		return WrapError(err, "Failed to convert "+args[0], "Check the directory permissions")
	}

	summary := ConvertResult{Root: root, Files: results}
	if summary.Files == nil {
		summary.Files = []batch.Result{}
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case r.Written:
			summary.Written++
			summary.Changed++
		case r.Changed:
			summary.Changed++
		}
	}

	out := NewOutputFormatter(cmd)
	if IsJSONOutput() {
		if err := out.JSON(summary); err != nil {
			return err
		}
	} else {
		printConvertText(out, summary)
	}

	if summary.Failed > 0 {
		return NewCLIError(fmt.Sprintf("%d of %d files could not be rewritten", summary.Failed, len(results)),
			"Convert the reported assertions by hand, then run convert again")
	}
	return nil
}

func printConvertText(out *OutputFormatter, summary ConvertResult) {
	if len(summary.Files) == 0 {
		out.Info("No test files found in %s", summary.Root)
		return
	}

	rows := make([][]string, len(summary.Files))
	for i, r := range summary.Files {
		rows[i] = []string{r.Path, r.Language, strings.Join(r.Rewriters, ", "), convertStatus(r)}
	}
	out.Table([]string{"FILE", "LANGUAGE", "REWRITERS", "STATUS"}, rows)

	for _, r := range summary.Files {
		if r.Err != nil {
			out.Error("%s: %s", r.Path, r.Error)
		}
	}

	if summary.Written > 0 {
		out.Success("Rewrote %d of %d files", summary.Written, len(summary.Files))
	} else {
		out.Info("%d of %d files would change", summary.Changed, len(summary.Files))
	}
}

func convertStatus(r batch.Result) string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Written:
		return "written"
	case r.Changed:
		return "changed"
	case len(r.Rewriters) == 0:
		return "skipped"
	default:
		return "unchanged"
	}
}
