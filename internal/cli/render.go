package cli

import (
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/kataforge-dev/kataforge/internal/markup"
)

var (
	renderLang   string
	renderPretty bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a kata description for one language",
	Long: `Render a kata description read from a file or stdin.

Conditional blocks for other languages are removed and blocks for the
active language are unwrapped. --pretty renders the result as styled
terminal markdown.

Examples:
  kataforge render --lang python description.md
  kataforge render --lang go --pretty < description.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderLang, "lang", "l", "", "Active language (default: the language used last)")
	renderCmd.Flags().BoolVar(&renderPretty, "pretty", false, "Render styled markdown for the terminal")
	rootCmd.AddCommand(renderCmd)
}

// RenderResult is the outcome of the render command
type RenderResult struct {
	Language string `json:"language"`
	Output   string `json:"output"`
}

func runRender(cmd *cobra.Command, args []string) error {
	var file string
	if len(args) == 1 {
		file = args[0]
	}

	env, err := newAppEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	doc, err := readInput(cmd, file)
	if err != nil {
		return WrapError(err, "Failed to read input", "Pass a readable file or pipe the description on stdin")
	}

	// Descriptions name languages no handler serves, so an explicit
	// --lang is used as given.
	lang := renderLang
	if lang == "" {
		h, err := env.handler(cmd.Context(), "", "")
		if err != nil {
			return err
		}
		lang = h.Language()
	}

	result := RenderResult{Language: lang}
	result.Output, err = markup.Render(doc, lang)
	if err != nil {
		return WrapError(err, "Failed to render description", "Pass the active language with --lang")
	}

	out := NewOutputFormatter(cmd)
	if IsJSONOutput() {
		return out.JSON(result)
	}

	if renderPretty || env.cfg.Render.Pretty {
		styled, err := prettyMarkdown(result.Output, env.cfg.Render.WordWrap)
		if err != nil {
			env.logger.Warn("failed to style markdown", "error", err)
		} else {
			result.Output = styled
		}
	}

	out.Source(result.Output)
	return nil
}

func prettyMarkdown(doc string, wordWrap int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", err
	}
	return r.Render(doc)
}
