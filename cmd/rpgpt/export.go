package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rpgpt/internal/export"
	"rpgpt/internal/service"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [qa_data.json]",
	Short: "Convert a Q&A save file to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: input name with .xlsx)")
}

func runExport(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	file, err := service.DecodeQAFile(in)
	if err != nil {
		return err
	}

	output := exportOutput
	if output == "" {
		output = strings.TrimSuffix(args[0], ".json") + ".xlsx"
	}
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := export.NewExporter().Write(out, file.Settings, export.EntriesFromFile(file)); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	logger.Info("workbook written", zap.String("path", output), zap.Int("records", len(file.QA)))
	return nil
}
