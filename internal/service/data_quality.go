package service

import (
	"rpgpt/internal/models"
	"rpgpt/internal/state"
)

// DataQualityProfile holds quality metrics for a column
type DataQualityProfile struct {
	ColumnName      string  `json:"column_name"`
	TotalRows       int     `json:"total_rows"`
	NonNullRows     int     `json:"non_null_rows"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	IsKey           bool    `json:"is_key"`
}

// TableProfile summarizes a loaded table
type TableProfile struct {
	Rows    int                  `json:"rows"`
	Columns []DataQualityProfile `json:"columns"`
	// DuplicateKeys lists values of the key column that occur more than once.
	DuplicateKeys []string `json:"duplicate_keys,omitempty"`
}

// DataQualityProfiler analyzes data quality metrics of normalized frames
type DataQualityProfiler struct{}

// NewDataQualityProfiler creates a new profiler
func NewDataQualityProfiler() *DataQualityProfiler {
	return &DataQualityProfiler{}
}

// ProfileColumn analyzes quality metrics for a single column. Cells holding
// the NaN token count as null.
func (dqp *DataQualityProfiler) ProfileColumn(df *state.DataFrame, colIdx int) DataQualityProfile {
	profile := DataQualityProfile{
		ColumnName: df.Headers[colIdx],
		TotalRows:  len(df.Rows),
	}

	uniqueValues := make(map[string]int)
	nonNullCount := 0

	for _, row := range df.Rows {
		value := df.Cell(row, colIdx)
		if !models.ParseValue(value).Valid || value == "" {
			continue
		}

		nonNullCount++
		uniqueValues[value]++
	}

	profile.NonNullRows = nonNullCount
	profile.DistinctCount = len(uniqueValues)

	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-nonNullCount) / float64(profile.TotalRows)
	}
	if nonNullCount > 0 {
		profile.UniquenessRatio = float64(profile.DistinctCount) / float64(nonNullCount)
	}

	// Every row present and distinct
	profile.IsKey = profile.TotalRows > 0 && nonNullCount == profile.TotalRows && profile.DistinctCount == nonNullCount

	return profile
}

// Profile profiles every column and checks keyColumn for repeated values.
// An empty or unknown keyColumn skips the duplicate check.
func (dqp *DataQualityProfiler) Profile(df *state.DataFrame, keyColumn string) TableProfile {
	out := TableProfile{
		Rows:    len(df.Rows),
		Columns: make([]DataQualityProfile, len(df.Headers)),
	}
	for i := range df.Headers {
		out.Columns[i] = dqp.ProfileColumn(df, i)
	}

	keyIdx := df.ColumnIndex(keyColumn)
	if keyIdx < 0 {
		return out
	}
	counts := make(map[string]int)
	for _, row := range df.Rows {
		key := df.Cell(row, keyIdx)
		counts[key]++
		if counts[key] == 2 {
			out.DuplicateKeys = append(out.DuplicateKeys, key)
		}
	}
	return out
}
