package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgpt/internal/models"
)

func TestEncodeSettings(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeSettings(&buf, models.FilterSettings{
		SupplyChain: []string{"Yes"},
		IFRSS2:      []string{"NaN"},
		AFI:         []string{},
		ModuleName:  []string{"M1 & M2"},
	})
	require.NoError(t, err)

	want := `{
    "sectors": [],
    "supply_chain": [
        "Yes"
    ],
    "ifrs_s2": [
        "NaN"
    ],
    "afi": [],
    "module_name": [
        "M1 & M2"
    ]
}
`
	assert.Equal(t, want, buf.String())
}

func TestDecodeSettings(t *testing.T) {
	t.Run("scalars are stringified", func(t *testing.T) {
		s, err := DecodeSettings(strings.NewReader(`{"sectors": ["Food"], "supply_chain": [true, 1, null], "afi": []}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"Food"}, s.Sectors)
		assert.Equal(t, []string{"True", "1", "NaN"}, s.SupplyChain)
		assert.NotNil(t, s.AFI)
		assert.Empty(t, s.AFI)
		assert.Nil(t, s.IFRSS2)
		assert.Nil(t, s.ModuleName)
	})

	t.Run("null list stays unset", func(t *testing.T) {
		s, err := DecodeSettings(strings.NewReader(`{"module_name": null}`))
		require.NoError(t, err)
		assert.Nil(t, s.ModuleName)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		s, err := DecodeSettings(strings.NewReader(`{"sectors": ["Food"], "theme": "dark"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"Food"}, s.Sectors)
	})

	invalid := map[string]string{
		"not json":       `{"sectors": [`,
		"not an object":  `["Food"]`,
		"null document":  `null`,
		"key not a list": `{"sectors": "Food"}`,
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSettings(strings.NewReader(body))
			require.Error(t, err)
			assert.True(t, IsCode(err, InvalidPersistedFile), "got %v", err)
		})
	}
}

func TestQAFileRoundTrip(t *testing.T) {
	file := models.QAFile{
		Settings: models.FilterSettings{
			Sectors:     []string{"Food"},
			SupplyChain: []string{"Yes", "No"},
			IFRSS2:      []string{"Yes"},
			AFI:         []string{"No"},
			ModuleName:  []string{"M1"},
		},
		QA: []models.QARecord{
			{QuestionID: "1", Question: "Describe <governance>.", Answer: "We do \"this\"."},
			{QuestionID: "2", Question: "Emissions?", Answer: ""},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeQAFile(&buf, file))
	assert.Contains(t, buf.String(), "<governance>")

	decoded, err := DecodeQAFile(&buf)
	require.NoError(t, err)
	assert.Equal(t, file, decoded)
}

func TestEncodeQAFileEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeQAFile(&buf, models.QAFile{}))

	decoded, err := DecodeQAFile(&buf)
	require.NoError(t, err)
	assert.Empty(t, decoded.QA)
	assert.Equal(t, []string{}, decoded.Settings.Sectors)
}

func TestDecodeQAFile(t *testing.T) {
	t.Run("numeric ids are stringified", func(t *testing.T) {
		file, err := DecodeQAFile(strings.NewReader(`{"settings": {}, "qa": [{"question_id": 12, "answer": "x"}]}`))
		require.NoError(t, err)
		assert.Equal(t, []models.QARecord{{QuestionID: "12", Answer: "x"}}, file.QA)
	})

	t.Run("missing keys are reported", func(t *testing.T) {
		_, err := DecodeQAFile(strings.NewReader(`{"qa": []}`))
		require.Error(t, err)
		var svcErr *Error
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, InvalidPersistedFile, svcErr.Code)
		assert.Equal(t, map[string]interface{}{"missing": []string{"settings"}}, svcErr.Details)
	})

	invalid := map[string]string{
		"not json":            `{`,
		"qa not a list":       `{"settings": {}, "qa": {}}`,
		"settings not object": `{"settings": [], "qa": []}`,
		"record not object":   `{"settings": {}, "qa": ["1"]}`,
		"record without id":   `{"settings": {}, "qa": [{"answer": "x"}]}`,
		"bad settings list":   `{"settings": {"afi": "Yes"}, "qa": []}`,
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeQAFile(strings.NewReader(body))
			require.Error(t, err)
			assert.True(t, IsCode(err, InvalidPersistedFile), "got %v", err)
		})
	}
}
