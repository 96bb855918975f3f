package service

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgpt/internal/models"
)

func TestFilterEngineApply(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		settings models.FilterSettings
		want     []string
	}{
		{
			name: "wildcard and list rows pass",
			settings: models.FilterSettings{
				Sectors:     []string{"Food"},
				SupplyChain: []string{"Yes"},
				IFRSS2:      []string{"Yes"},
				AFI:         []string{"No"},
				ModuleName:  []string{"M1"},
			},
			want: []string{"1", "2"},
		},
		{
			name: "unknown sector keeps only wildcard rows",
			settings: models.FilterSettings{
				Sectors:     []string{"NonExistentSector"},
				SupplyChain: []string{"Yes"},
				IFRSS2:      []string{"Yes"},
				AFI:         []string{"No"},
				ModuleName:  []string{"M1"},
			},
			want: []string{"1"},
		},
		{
			name:     "no sectors means no restriction",
			settings: models.FilterSettings{},
			want:     []string{"1", "2", "3", "4"},
		},
		{
			name:     "exclusion row passes for other sectors",
			settings: models.FilterSettings{Sectors: []string{"Cement"}},
			want:     []string{"1", "3"},
		},
		{
			name:     "exclusion row drops for excluded sector",
			settings: models.FilterSettings{Sectors: []string{"Food"}},
			want:     []string{"1", "2"},
		},
		{
			name:     "empty categorical list selects nothing",
			settings: models.FilterSettings{SupplyChain: []string{}},
			want:     []string{},
		},
		{
			name:     "NaN token selects missing values",
			settings: models.FilterSettings{IFRSS2: []string{"NaN"}},
			want:     []string{"3"},
		},
		{
			name:     "module filter",
			settings: models.FilterSettings{ModuleName: []string{"M3", "M2"}},
			want:     []string{"3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Apply(tt.settings)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterEngineApplyDetailed(t *testing.T) {
	engine := newTestEngine(t)

	res := engine.ApplyDetailed(models.FilterSettings{Sectors: []string{"Food", "Mining"}})
	assert.Equal(t, []string{"FB", "Mining"}, res.Codes.Sorted())
	assert.Equal(t, []string{"Mining"}, res.Unresolved)

	res = engine.ApplyDetailed(models.FilterSettings{})
	assert.Nil(t, res.Codes)
	assert.Empty(t, res.Unresolved)
}

func TestFilterEngineIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	settings := models.FilterSettings{Sectors: []string{"Apparel"}, AFI: []string{"No", "Yes"}}

	first := engine.Apply(settings)
	second := engine.Apply(settings)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Apply is not idempotent (-first +second):\n%s", diff)
	}
}

func TestFilterEngineEffective(t *testing.T) {
	engine := newTestEngine(t)

	got := engine.Effective(models.FilterSettings{AFI: []string{"Yes"}})
	want := models.FilterSettings{
		Sectors:     []string{},
		SupplyChain: []string{"Yes", "No"},
		IFRSS2:      []string{"Yes", "NaN", "No"},
		AFI:         []string{"Yes"},
		ModuleName:  []string{"M1", "M2", "M3"},
	}
	assert.Equal(t, want, got)

	assert.Equal(t, ids(engine.Apply(models.FilterSettings{})), ids(engine.Apply(engine.Defaults())))
}

func TestFilterSettingsRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	settings := engine.Effective(models.FilterSettings{
		Sectors: []string{"Cement"},
		IFRSS2:  []string{"NaN", "No"},
	})

	var buf bytes.Buffer
	require.NoError(t, EncodeSettings(&buf, settings))
	decoded, err := DecodeSettings(&buf)
	require.NoError(t, err)

	assert.Equal(t, settings, decoded)
	assert.Equal(t, ids(engine.Apply(settings)), ids(engine.Apply(decoded)))
}
