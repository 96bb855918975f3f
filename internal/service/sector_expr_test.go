package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSectorExpr(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  SectorExprKind
		codes []string
		bad   bool
	}{
		{name: "wildcard", raw: "All sectors", kind: SectorWildcard},
		{name: "wildcard any case", raw: "  all SECTORS ", kind: SectorWildcard},
		{name: "flat list", raw: "FB, AC", kind: SectorList, codes: []string{"FB", "AC"}},
		{name: "flat list keeps and", raw: "FB, AC, and CE", kind: SectorList, codes: []string{"FB", "AC", "and CE"}},
		{name: "single code", raw: "CE", kind: SectorList, codes: []string{"CE"}},
		{name: "empty cell", raw: "", kind: SectorList},
		{
			name:  "exclusion",
			raw:   "All sectors except (FB, AC, and CE)",
			kind:  SectorExclusion,
			codes: []string{"FB", "AC", "CE"},
		},
		{
			name:  "exclusion with trailing text",
			raw:   "All sectors except(FB) for now",
			kind:  SectorExclusion,
			codes: []string{"FB"},
		},
		{
			name:  "except without parentheses",
			raw:   "All sectors except FB",
			kind:  SectorList,
			codes: []string{"All sectors except FB"},
			bad:   true,
		},
		{
			name:  "unclosed clause",
			raw:   "All sectors except (FB",
			kind:  SectorList,
			codes: []string{"All sectors except (FB"},
			bad:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseSectorExpr(tt.raw)
			if tt.bad {
				require.Error(t, err)
				assert.True(t, IsCode(err, MalformedSectorExpr))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.kind, expr.Kind)
			assert.Equal(t, tt.codes, expr.Codes)
		})
	}
}

func TestSectorExprKindString(t *testing.T) {
	assert.Equal(t, "wildcard", SectorWildcard.String())
	assert.Equal(t, "exclusion", SectorExclusion.String())
	assert.Equal(t, "list", SectorList.String())
}

func TestRowMatcher(t *testing.T) {
	aliases, err := NewAliasTable(DefaultAliases)
	require.NoError(t, err)
	m := NewRowMatcher(aliases)

	t.Run("wildcard matches any selection", func(t *testing.T) {
		assert.True(t, m.Matches("All sectors", NewCodeSet()))
		assert.True(t, m.Matches("All sectors", NewCodeSet("FB")))
		assert.True(t, m.Matches("ALL SECTORS", NewCodeSet("XYZ")))
	})

	t.Run("exclusion rejects a selected excluded code", func(t *testing.T) {
		row := "All sectors except (FB, AC)"
		assert.False(t, m.Matches(row, NewCodeSet("FB")))
		assert.False(t, m.Matches(row, NewCodeSet("CE", "AC")))
		assert.True(t, m.Matches(row, NewCodeSet("CE")))
	})

	t.Run("exclusion canonicalizes excluded codes", func(t *testing.T) {
		assert.False(t, m.Matches("All sectors except (FBT)", NewCodeSet("FB")))
	})

	t.Run("exclusion with empty selection", func(t *testing.T) {
		assert.False(t, m.Matches("All sectors except (FB)", NewCodeSet()))
	})

	t.Run("flat list intersection", func(t *testing.T) {
		assert.True(t, m.Matches("FB, AC", NewCodeSet("AC")))
		assert.True(t, m.Matches("FBT", NewCodeSet("FB")))
		assert.False(t, m.Matches("FB, AC", NewCodeSet("CE")))
		assert.False(t, m.Matches("FB, AC", NewCodeSet()))
	})

	t.Run("and is only a joiner inside an exclusion", func(t *testing.T) {
		assert.False(t, m.Matches("FB, and AC", NewCodeSet("AC")))
		assert.True(t, m.Matches("FB, and AC", NewCodeSet("FB")))
		assert.False(t, m.Matches("All sectors except (FB, and AC)", NewCodeSet("AC")))
	})

	t.Run("codes are case sensitive", func(t *testing.T) {
		assert.False(t, m.Matches("fb", NewCodeSet("FB")))
	})

	t.Run("malformed exclusion falls back to list", func(t *testing.T) {
		assert.False(t, m.Matches("All sectors except FB", NewCodeSet("CE")))
		assert.True(t, m.Matches("All sectors except FB", NewCodeSet("All sectors except FB")))
	})

	t.Run("nil alias table uses codes as is", func(t *testing.T) {
		plain := NewRowMatcher(nil)
		assert.False(t, plain.Matches("FBT", NewCodeSet("FB")))
		assert.True(t, plain.Matches("FBT", NewCodeSet("FBT")))
	})
}
