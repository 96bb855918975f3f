package service

import (
	"fmt"
	"regexp"
	"strings"

	"rpgpt/internal/models"
)

// FormatNormalizer brings raw table headers and cells into the shape the
// review core addresses them by
type FormatNormalizer struct {
	separatorPattern *regexp.Regexp
	missingTokens    map[string]bool
}

// NewFormatNormalizer creates a new format normalizer
func NewFormatNormalizer() *FormatNormalizer {
	return &FormatNormalizer{
		separatorPattern: regexp.MustCompile(`[\s\-_]+`),
		// Same spellings pandas reads as missing by default
		missingTokens: map[string]bool{
			"":         true,
			"#N/A":     true,
			"#N/A N/A": true,
			"#NA":      true,
			"-1.#IND":  true,
			"-1.#QNAN": true,
			"-NaN":     true,
			"-nan":     true,
			"1.#IND":   true,
			"1.#QNAN":  true,
			"<NA>":     true,
			"N/A":      true,
			"NA":       true,
			"NULL":     true,
			"NaN":      true,
			"None":     true,
			"n/a":      true,
			"nan":      true,
			"null":     true,
		},
	}
}

// NormalizeHeader lowercases a column name and collapses runs of
// whitespace, hyphens and underscores into a single underscore.
// "Supply Chain - Only" becomes "supply_chain_only".
func (fn *FormatNormalizer) NormalizeHeader(header string) string {
	return fn.separatorPattern.ReplaceAllString(strings.ToLower(header), "_")
}

// NormalizeHeaders normalizes every header in place and returns the slice
func (fn *FormatNormalizer) NormalizeHeaders(headers []string) []string {
	for i, h := range headers {
		headers[i] = fn.NormalizeHeader(strings.TrimSpace(h))
	}
	return headers
}

// NormalizeCell maps missing-value spellings to the NaN token and leaves
// everything else untouched
func (fn *FormatNormalizer) NormalizeCell(value string) string {
	if fn.missingTokens[strings.TrimSpace(value)] {
		return models.NaN
	}
	return value
}

// NormalizeValue stringifies a database value: nil becomes NaN, byte
// slices become strings and everything else uses its default format
func (fn *FormatNormalizer) NormalizeValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return models.NaN
	case []byte:
		return fn.NormalizeCell(string(v))
	case string:
		return fn.NormalizeCell(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fn.NormalizeCell(fmt.Sprint(v))
	}
}
