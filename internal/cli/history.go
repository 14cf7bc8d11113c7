package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kataforge-dev/kataforge/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the language used last and recent rewrites",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of rewrites to show")
	rootCmd.AddCommand(historyCmd)
}

// HistoryResult is the outcome of the history command
type HistoryResult struct {
	Path             string            `json:"path"`
	PreviousLanguage string            `json:"previous_language,omitempty"`
	Total            int               `json:"total"`
	Rewrites         []history.Rewrite `json:"rewrites"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	env, err := newAppEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	store, err := env.openHistory(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return ErrHistoryDisabled()
	}

	result := HistoryResult{Path: store.Path()}
	if result.PreviousLanguage, err = store.PreviousLanguage(ctx, ""); err != nil {
		return err
	}
	if result.Total, err = store.CountRewrites(ctx); err != nil {
		return err
	}
	if result.Rewrites, err = store.RecentRewrites(ctx, historyLimit); err != nil {
		return err
	}
	if result.Rewrites == nil {
		result.Rewrites = []history.Rewrite{}
	}

	out := NewOutputFormatter(cmd)
	if IsJSONOutput() {
		return out.JSON(result)
	}

	previous := result.PreviousLanguage
	if previous == "" {
		previous = "(none, using " + env.cfg.DefaultLanguage + ")"
	}
	out.Info("Previous language: %s", previous)
	out.Info("Rewrites recorded: %d", result.Total)
	if len(result.Rewrites) == 0 {
		return nil
	}

	rows := make([][]string, len(result.Rewrites))
	for i, r := range result.Rewrites {
		file := r.File
		if file == "" {
			file = "-"
		}
		rows[i] = []string{r.CreatedAt.Local().Format(time.DateTime), r.Language, r.Rewriter, file}
	}
	out.Info("")
	out.Table([]string{"TIME", "LANGUAGE", "REWRITER", "FILE"}, rows)
	return nil
}
