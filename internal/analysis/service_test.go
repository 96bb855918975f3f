package analysis

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const questionsCSV = "\xef\xbb\xbfQuestion Number,2024 Question,Sector,Supply Chain - Only,IFRS S2,AFI,Module Name\n" +
	"1,Describe your governance.,All sectors,Yes,Yes,No,M1\n" +
	"2,\"Report emissions, by scope.\",\"FB, AC\",N/A,,No\n" +
	" , , \n" +
	"3,Cement output.,All sectors except (FB),No,No,No,M2\n"

func TestParse(t *testing.T) {
	df, err := NewCSVService().Parse(strings.NewReader(questionsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"question_number", "2024_question", "sector", "supply_chain_only", "ifrs_s2", "afi", "module_name"}, df.Headers)
	require.Len(t, df.Rows, 3)
	assert.Equal(t, []string{"2", "Report emissions, by scope.", "FB, AC", "NaN", "NaN", "No", "NaN"}, df.Rows[1])
	assert.Equal(t, "All sectors except (FB)", df.Rows[2][2])
}

func TestParseSemicolon(t *testing.T) {
	data := "Sector;Sector Code\nFood, beverage & tobacco;FB\nApparel;AC\n"
	df, err := NewCSVService().Parse(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"sector", "sector_code"}, df.Headers)
	assert.Equal(t, [][]string{{"Food, beverage & tobacco", "FB"}, {"Apparel", "AC"}}, df.Rows)
}

func TestParseEmpty(t *testing.T) {
	_, err := NewCSVService().Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewCSVService()

	plain := filepath.Join(dir, "questions.csv")
	require.NoError(t, os.WriteFile(plain, []byte(questionsCSV), 0o644))

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(questionsCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	gzPath := filepath.Join(dir, "questions.csv.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0o644))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstPath := filepath.Join(dir, "questions.csv.zst")
	require.NoError(t, os.WriteFile(zstPath, enc.EncodeAll([]byte(questionsCSV), nil), 0o644))
	require.NoError(t, enc.Close())

	want, err := svc.LoadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "questions.csv", want.FileName)
	assert.Equal(t, plain, want.FilePath)

	for _, path := range []string{gzPath, zstPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			df, err := svc.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, want.Headers, df.Headers)
			assert.Equal(t, want.Rows, df.Rows)
			assert.Equal(t, filepath.Base(path), df.FileName)
		})
	}

	_, err = svc.LoadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
