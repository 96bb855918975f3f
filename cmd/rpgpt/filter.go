package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rpgpt/internal/models"
	"rpgpt/internal/service"
)

var (
	filterSettingsPath string
	filterJSON         bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print the questions a settings file selects",
	Long: `Applies a settings file (as downloaded from the API) to the question table
and prints the selected question ids, one per line. Without --settings every
question passes.

Example:
  rpgpt filter --settings settings.json --json`,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterSettingsPath, "settings", "s", "", "settings file")
	filterCmd.Flags().BoolVar(&filterJSON, "json", false, "print full rows as JSON")
}

func runFilter(cmd *cobra.Command, args []string) error {
	engine, err := loadEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	var settings models.FilterSettings
	if filterSettingsPath != "" {
		f, err := os.Open(filterSettingsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if settings, err = service.DecodeSettings(f); err != nil {
			return err
		}
	}

	res := engine.ApplyDetailed(settings)
	for _, name := range res.Unresolved {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: sector %q is not in the sector table\n", name)
	}

	out := cmd.OutOrStdout()
	if filterJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "    ")
		return enc.Encode(res.Rows)
	}
	for _, row := range res.Rows {
		fmt.Fprintln(out, row.QuestionID)
	}
	return nil
}
