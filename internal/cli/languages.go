package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kataforge-dev/kataforge/internal/models"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the supported kata languages",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

// LanguageInfo describes one language handler
type LanguageInfo struct {
	Language    string   `json:"language"`
	DisplayName string   `json:"display_name"`
	Extension   string   `json:"extension"`
	Rewriters   []string `json:"rewriters"`
	Variants    []string `json:"variants,omitempty"`
}

func runLanguages(cmd *cobra.Command, args []string) error {
	env, err := newAppEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	var infos []LanguageInfo
	for _, lang := range env.languages.Languages() {
		h, err := env.languages.Get(lang)
		if err != nil {
			return err
		}
		rewriters, err := h.Rewriters(models.TemplateTest, "")
		if err != nil {
			return err
		}
		infos = append(infos, LanguageInfo{
			Language:    h.Language(),
			DisplayName: h.DisplayName(),
			Extension:   h.Extension(),
			Rewriters:   rewriters,
			Variants:    h.Variants(),
		})
	}

	out := NewOutputFormatter(cmd)
	if IsJSONOutput() {
		return out.JSON(infos)
	}

	rows := make([][]string, len(infos))
	for i, info := range infos {
		rewriters := strings.Join(info.Rewriters, ", ")
		if rewriters == "" {
			rewriters = "-"
		}
		rows[i] = []string{info.Language, info.DisplayName, "." + info.Extension, rewriters, strings.Join(info.Variants, ", ")}
	}
	out.Table([]string{"LANGUAGE", "NAME", "EXTENSION", "TEST REWRITERS", "VARIANTS"}, rows)
	return nil
}
