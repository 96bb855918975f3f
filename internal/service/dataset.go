package service

import (
	"fmt"
	"strings"

	"rpgpt/internal/models"
	"rpgpt/internal/state"
)

// Normalized column names of the question table.
const (
	ColSector          = "sector"
	ColSupplyChainOnly = "supply_chain_only"
	ColIFRSS2          = "ifrs_s2"
	ColAFI             = "afi"
	ColModuleName      = "module_name"
	ColQuestionNumber  = "question_number"
	ColSectorCode      = "sector_code"

	// DefaultQuestionTextColumn is the question text column of the 2024 CDP
	// question export.
	DefaultQuestionTextColumn = "2024_question"
)

// Dataset is the immutable question table shared by all sessions.
type Dataset struct {
	rows      []models.QuestionRow
	distinct  map[string][]models.Value
	malformed []MalformedRow
}

// MalformedRow names a row whose sector cell fell back to list parsing.
type MalformedRow struct {
	QuestionID string `json:"question_id"`
	SectorExpr string `json:"sector"`
	Reason     string `json:"reason"`
}

// NewDataset builds the question table from a normalized frame. textColumn
// names the question text column; when empty, DefaultQuestionTextColumn is
// used and, failing that, the first column ending in "question". Missing
// required columns are a SchemaViolation. Rows whose sector cell is
// malformed are kept and reported.
func NewDataset(df *state.DataFrame, textColumn string) (*Dataset, []MalformedRow, error) {
	textCol := resolveTextColumn(df, textColumn)

	required := []string{ColSector, ColSupplyChainOnly, ColIFRSS2, ColAFI, ColModuleName, ColQuestionNumber}
	idx := make(map[string]int, len(required)+1)
	var missing []string
	for _, col := range required {
		i := df.ColumnIndex(col)
		if i < 0 {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if textCol == "" {
		want := textColumn
		if want == "" {
			want = DefaultQuestionTextColumn
		}
		missing = append(missing, want)
	} else {
		idx[textCol] = df.ColumnIndex(textCol)
	}
	if len(missing) > 0 {
		return nil, nil, NewError(SchemaViolation,
			fmt.Sprintf("question table is missing columns: %s", strings.Join(missing, ", ")), nil).
			WithDetails(map[string]interface{}{"missing": missing, "columns": df.Headers})
	}

	ds := &Dataset{
		rows:     make([]models.QuestionRow, 0, len(df.Rows)),
		distinct: make(map[string][]models.Value),
	}
	var malformed []MalformedRow
	seen := map[string]map[models.Value]bool{
		ColSupplyChainOnly: {},
		ColIFRSS2:          {},
		ColAFI:             {},
		ColModuleName:      {},
	}

	for _, raw := range df.Rows {
		text := func(col string) string {
			v := models.ParseValue(df.Cell(raw, idx[col]))
			if !v.Valid {
				return ""
			}
			return strings.TrimSpace(v.Text)
		}
		value := func(col string) models.Value {
			v := models.ParseValue(df.Cell(raw, idx[col]))
			if !seen[col][v] {
				seen[col][v] = true
				ds.distinct[col] = append(ds.distinct[col], v)
			}
			return v
		}

		row := models.QuestionRow{
			QuestionID:      text(ColQuestionNumber),
			QuestionText:    text(textCol),
			SectorExpr:      text(ColSector),
			SupplyChainOnly: value(ColSupplyChainOnly),
			IFRSS2:          value(ColIFRSS2),
			AFI:             value(ColAFI),
			ModuleName:      value(ColModuleName),
		}
		if _, err := ParseSectorExpr(row.SectorExpr); err != nil {
			malformed = append(malformed, MalformedRow{
				QuestionID: row.QuestionID,
				SectorExpr: row.SectorExpr,
				Reason:     err.Error(),
			})
		}
		ds.rows = append(ds.rows, row)
	}

	ds.malformed = malformed
	return ds, malformed, nil
}

// NewDatasetFromRows wraps already-built rows.
func NewDatasetFromRows(rows []models.QuestionRow) *Dataset {
	ds := &Dataset{
		rows:     make([]models.QuestionRow, len(rows)),
		distinct: make(map[string][]models.Value),
	}
	copy(ds.rows, rows)
	seen := map[string]map[models.Value]bool{}
	for _, r := range ds.rows {
		for col, v := range map[string]models.Value{
			ColSupplyChainOnly: r.SupplyChainOnly,
			ColIFRSS2:          r.IFRSS2,
			ColAFI:             r.AFI,
			ColModuleName:      r.ModuleName,
		} {
			if seen[col] == nil {
				seen[col] = map[models.Value]bool{}
			}
			if !seen[col][v] {
				seen[col][v] = true
				ds.distinct[col] = append(ds.distinct[col], v)
			}
		}
	}
	return ds
}

func resolveTextColumn(df *state.DataFrame, want string) string {
	if want != "" {
		if df.ColumnIndex(want) >= 0 {
			return want
		}
		return ""
	}
	if df.ColumnIndex(DefaultQuestionTextColumn) >= 0 {
		return DefaultQuestionTextColumn
	}
	for _, h := range df.Headers {
		if strings.HasSuffix(h, "question") {
			return h
		}
	}
	return ""
}

// Malformed lists rows whose sector cell fell back to list parsing.
func (d *Dataset) Malformed() []MalformedRow {
	return d.malformed
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns the rows in table order. The slice is shared and must not
// be modified.
func (d *Dataset) Rows() []models.QuestionRow {
	return d.rows
}

// Distinct returns the distinct values of a categorical column in order of
// first appearance.
func (d *Dataset) Distinct(column string) []models.Value {
	return d.distinct[column]
}

// DistinctTokens is Distinct rendered at the boundary (missing as NaN).
func (d *Dataset) DistinctTokens(column string) []string {
	vals := d.distinct[column]
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Token()
	}
	return out
}

// NewSectorTable reads (sector, sector_code) pairs from a normalized frame.
// Rows with a missing name or code are skipped.
func NewSectorTable(df *state.DataFrame) (*SectorTable, error) {
	nameIdx := df.ColumnIndex(ColSector)
	codeIdx := df.ColumnIndex(ColSectorCode)
	var missing []string
	if nameIdx < 0 {
		missing = append(missing, ColSector)
	}
	if codeIdx < 0 {
		missing = append(missing, ColSectorCode)
	}
	if len(missing) > 0 {
		return nil, NewError(SchemaViolation,
			fmt.Sprintf("sector table is missing columns: %s", strings.Join(missing, ", ")), nil).
			WithDetails(map[string]interface{}{"missing": missing, "columns": df.Headers})
	}

	pairs := make([][2]string, 0, len(df.Rows))
	for _, row := range df.Rows {
		name := models.ParseValue(strings.TrimSpace(df.Cell(row, nameIdx)))
		code := models.ParseValue(strings.TrimSpace(df.Cell(row, codeIdx)))
		if !name.Valid || !code.Valid || name.Text == "" || code.Text == "" {
			continue
		}
		pairs = append(pairs, [2]string{name.Text, code.Text})
	}
	return NewSectorTableFromPairs(pairs), nil
}
