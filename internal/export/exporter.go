package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"rpgpt/internal/models"
)

const (
	QASheet       = "Q&A"
	SettingsSheet = "Settings"
)

// Exporter writes review results as an Excel workbook
type Exporter struct{}

// NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export builds a workbook with one row per cached question and one row
// per filter setting
func (e *Exporter) Export(settings models.FilterSettings, entries []models.QACacheEntry) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", QASheet); err != nil {
		return nil, err
	}

	headers := []string{"Question ID", "Sector", "Module", "Question", "Answer"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(QASheet, cell, h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, err
	}
	f.SetRowStyle(QASheet, 1, 1, headerStyle)

	for i, entry := range entries {
		row := i + 2
		f.SetCellValue(QASheet, fmt.Sprintf("A%d", row), entry.QuestionID)
		f.SetCellValue(QASheet, fmt.Sprintf("B%d", row), entry.Sector)
		f.SetCellValue(QASheet, fmt.Sprintf("C%d", row), entry.ModuleName)
		f.SetCellValue(QASheet, fmt.Sprintf("D%d", row), entry.QuestionText)
		f.SetCellValue(QASheet, fmt.Sprintf("E%d", row), entry.Answer)
	}
	if len(entries) > 0 {
		f.SetCellStyle(QASheet, "D2", fmt.Sprintf("E%d", len(entries)+1), wrapStyle)
	}

	f.SetColWidth(QASheet, "A", "A", 12)
	f.SetColWidth(QASheet, "B", "C", 25)
	f.SetColWidth(QASheet, "D", "E", 80)

	if _, err := f.NewSheet(SettingsSheet); err != nil {
		return nil, err
	}
	settingsData := [][]interface{}{{"Setting", "Values"}}
	for _, key := range models.SettingsKeys {
		settingsData = append(settingsData, []interface{}{key, strings.Join(settings.List(key), ", ")})
	}
	for i, row := range settingsData {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue(SettingsSheet, cell, val)
		}
	}
	f.SetRowStyle(SettingsSheet, 1, 1, headerStyle)
	f.SetColWidth(SettingsSheet, "A", "A", 20)
	f.SetColWidth(SettingsSheet, "B", "B", 80)

	return f, nil
}

// Write exports straight to w
func (e *Exporter) Write(w io.Writer, settings models.FilterSettings, entries []models.QACacheEntry) error {
	f, err := e.Export(settings, entries)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// EntriesFromFile turns a Q&A file into rows for Export. Sector and module
// are not part of the file and stay empty.
func EntriesFromFile(file models.QAFile) []models.QACacheEntry {
	out := make([]models.QACacheEntry, 0, len(file.QA))
	for _, rec := range file.QA {
		out = append(out, models.QACacheEntry{
			QuestionID:   rec.QuestionID,
			QuestionText: rec.Question,
			Answer:       rec.Answer,
		})
	}
	return out
}
