package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgpt/internal/state"
)

func TestAliasTable(t *testing.T) {
	t.Run("chains collapse to a fixed point", func(t *testing.T) {
		table, err := NewAliasTable(map[string]string{"A1": "A", "A": "ROOT", "ROOT": "ROOT"})
		require.NoError(t, err)
		for _, code := range []string{"A1", "A", "ROOT"} {
			assert.Equal(t, "ROOT", table.Canonical(code))
			assert.Equal(t, table.Canonical(code), table.Canonical(table.Canonical(code)))
		}
	})

	t.Run("unknown codes map to themselves", func(t *testing.T) {
		table, err := NewAliasTable(DefaultAliases)
		require.NoError(t, err)
		assert.Equal(t, "ZZ", table.Canonical("ZZ"))
		assert.Equal(t, "FB", table.Canonical("FBT"))
		assert.Equal(t, len(DefaultAliases), table.Len())
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		_, err := NewAliasTable(map[string]string{"A": "B", "B": "A"})
		require.Error(t, err)
		assert.True(t, IsCode(err, AliasCycle))
	})

	t.Run("nil table", func(t *testing.T) {
		var table *AliasTable
		assert.Equal(t, "FB", table.Canonical("FB"))
		assert.Zero(t, table.Len())
	})
}

func TestLoadAliases(t *testing.T) {
	t.Run("merges over defaults", func(t *testing.T) {
		table, err := LoadAliases(strings.NewReader("aliases:\n  FBX: FBT\n  CE: CE\n"))
		require.NoError(t, err)
		assert.Equal(t, "FB", table.Canonical("FBX"))
		assert.Equal(t, "FB", table.Canonical("FBT"))
		assert.Equal(t, "AC", table.Canonical("AC"))
	})

	t.Run("empty document keeps defaults", func(t *testing.T) {
		table, err := LoadAliases(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, len(DefaultAliases), table.Len())
	})

	t.Run("cycle in file", func(t *testing.T) {
		_, err := LoadAliases(strings.NewReader("aliases:\n  X: Y\n  Y: X\n"))
		assert.True(t, IsCode(err, AliasCycle))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadAliases(strings.NewReader("aliases: [unterminated"))
		assert.Error(t, err)
	})
}

func TestLoadAliasFile(t *testing.T) {
	table, err := LoadAliasFile("")
	require.NoError(t, err)
	assert.Equal(t, "FB", table.Canonical("FBT"))

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  OG: OGX\n"), 0o644))
	table, err = LoadAliasFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OGX", table.Canonical("OG"))

	_, err = LoadAliasFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCodeSet(t *testing.T) {
	a := NewCodeSet("FB", "AC")
	assert.True(t, a.Has("FB"))
	assert.False(t, a.Has("CE"))
	assert.True(t, a.Intersects(NewCodeSet("AC", "CE", "OG")))
	assert.False(t, a.Intersects(NewCodeSet()))
	assert.Equal(t, []string{"AC", "FB"}, a.Sorted())
}

func TestSectorTable(t *testing.T) {
	table := NewSectorTableFromPairs([][2]string{
		{"Food", "FB"},
		{"Apparel", "AC"},
		{"Food", "FBT"},
	})
	assert.Equal(t, []string{"Food", "Apparel"}, table.Names())

	codes, ok := table.Codes("Food")
	require.True(t, ok)
	assert.Equal(t, []string{"FB", "FBT"}, codes)

	_, ok = table.Codes("Mining")
	assert.False(t, ok)

	var empty *SectorTable
	assert.Empty(t, empty.Names())
	_, ok = empty.Codes("Food")
	assert.False(t, ok)
}

func TestNewSectorTable(t *testing.T) {
	t.Run("skips incomplete rows", func(t *testing.T) {
		df := &state.DataFrame{
			Headers: []string{"sector", "sector_code"},
			Rows: [][]string{
				{"Food", "FB"},
				{"NaN", "AC"},
				{"Cement", "NaN"},
				{" Apparel ", " AC "},
			},
		}
		table, err := NewSectorTable(df)
		require.NoError(t, err)
		assert.Equal(t, []string{"Food", "Apparel"}, table.Names())
		codes, _ := table.Codes("Apparel")
		assert.Equal(t, []string{"AC"}, codes)
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := NewSectorTable(&state.DataFrame{Headers: []string{"name"}})
		require.Error(t, err)
		assert.True(t, IsCode(err, SchemaViolation))
	})
}

func TestResolver(t *testing.T) {
	aliases, err := NewAliasTable(DefaultAliases)
	require.NoError(t, err)
	table := NewSectorTableFromPairs([][2]string{
		{"Food", "FBT"},
		{"Apparel", "AC"},
	})
	r := NewResolver(table, aliases)

	codes, unresolved := r.ResolveDetailed([]string{"Food", "Mining", "Apparel", "Mining"})
	assert.Equal(t, []string{"AC", "FB", "Mining"}, codes.Sorted())
	assert.Equal(t, []string{"Mining"}, unresolved)

	assert.Empty(t, r.Resolve(nil))
	assert.True(t, r.Resolve([]string{"FBT"}).Has("FB"), "unknown names still collapse through aliases")
}
