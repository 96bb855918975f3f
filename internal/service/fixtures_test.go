package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rpgpt/internal/models"
	"rpgpt/internal/state"
)

func questionFrame() *state.DataFrame {
	return &state.DataFrame{
		Headers: []string{"question_number", "2024_question", "sector", "supply_chain_only", "ifrs_s2", "afi", "module_name"},
		Rows: [][]string{
			{"1", "Describe your governance.", "All sectors", "Yes", "Yes", "No", "M1"},
			{"2", "Report food emissions.", "FB, AC", "Yes", "Yes", "No", "M1"},
			{"3", "Report cement output.", "All sectors except (FB, AC)", "No", "NaN", "No", "M2"},
			{"4", "Report apparel water use.", "AC", "No", "No", "Yes", "M3"},
		},
	}
}

func sectorPairs() [][2]string {
	return [][2]string{
		{"Food", "FB"},
		{"Apparel", "AC"},
		{"Cement", "CE"},
	}
}

func newTestEngine(t *testing.T) *FilterEngine {
	t.Helper()
	ds, malformed, err := NewDataset(questionFrame(), "")
	require.NoError(t, err)
	require.Empty(t, malformed)
	aliases, err := NewAliasTable(DefaultAliases)
	require.NoError(t, err)
	return NewFilterEngine(ds, NewSectorTableFromPairs(sectorPairs()), aliases)
}

func ids(rows []models.QuestionRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.QuestionID
	}
	return out
}
