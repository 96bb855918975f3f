package analysis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"rpgpt/internal/service"
	"rpgpt/internal/state"
)

// CSVService reads question and sector tables from delimited files
type CSVService struct {
	normalizer *service.FormatNormalizer
}

func NewCSVService() *CSVService {
	return &CSVService{normalizer: service.NewFormatNormalizer()}
}

// LoadFile reads a CSV file. Files ending in .gz or .zst are decompressed
// first.
func (s *CSVService) LoadFile(filePath string) (*state.DataFrame, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".gz":
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	df, err := s.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
	}
	df.FilePath = filePath
	df.FileName = filepath.Base(filePath)
	return df, nil
}

// Parse reads CSV data with normalized headers and missing cells as NaN.
// A header that only splits on semicolons switches the separator to ';'.
func (s *CSVService) Parse(r io.Reader) (*state.DataFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := newReader(data, ',')
	headers, err := reader.Read()
	if err != nil || (len(headers) == 1 && strings.Contains(headers[0], ";")) {
		// Try with semicolon separator
		reader = newReader(data, ';')
		headers, err = reader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read headers: %v", err)
		}
	}

	headers = s.normalizer.NormalizeHeaders(headers)

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Try to continue on malformed rows
			continue
		}
		if isBlank(record) {
			continue
		}
		for i, cell := range record {
			record[i] = s.normalizer.NormalizeCell(cell)
		}
		for len(record) < len(headers) {
			record = append(record, s.normalizer.NormalizeCell(""))
		}
		rows = append(rows, record)
	}

	return &state.DataFrame{
		Headers: headers,
		Rows:    rows,
	}, nil
}

func newReader(data []byte, comma rune) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true    // Allow bare quotes in non-quoted fields
	reader.TrimLeadingSpace = true
	return reader
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
