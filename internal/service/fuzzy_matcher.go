package service

import (
	"sort"
	"strings"
)

// FuzzyMatcher proposes known sector names for names that missed the
// sector table. It is stateless and safe for concurrent use.
type FuzzyMatcher struct {
	threshold float64
}

// NewFuzzyMatcher creates a new fuzzy matcher
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{threshold: 0.3}
}

// Suggestion is a candidate name with its similarity score (0-1)
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Suggest ranks candidates by similarity to query and returns at most limit
// of them scoring at or above the matcher threshold
func (fm *FuzzyMatcher) Suggest(query string, candidates []string, limit int) []Suggestion {
	var out []Suggestion
	for _, c := range candidates {
		score := fm.Similarity(query, c)
		if score >= fm.threshold {
			out = append(out, Suggestion{Name: c, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Similarity combines case-insensitive equality, prefix, phonetic and
// trigram checks
func (fm *FuzzyMatcher) Similarity(s1, s2 string) float64 {
	a := strings.ToLower(strings.TrimSpace(s1))
	b := strings.ToLower(strings.TrimSpace(s2))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.HasPrefix(b, a) || strings.HasPrefix(a, b) {
		return 0.9
	}
	if fm.Soundex(a) == fm.Soundex(b) {
		return 0.8
	}
	return fm.jaccardSimilarity(a, b)
}

// generateNGrams creates character n-grams
func (fm *FuzzyMatcher) generateNGrams(s string, n int) []string {
	s = strings.ToLower(s)
	grams := []string{}

	if len(s) < n {
		return []string{s}
	}

	for i := 0; i <= len(s)-n; i++ {
		grams = append(grams, s[i:i+n])
	}

	return grams
}

// jaccardSimilarity calculates Jaccard similarity of character trigrams
func (fm *FuzzyMatcher) jaccardSimilarity(s1, s2 string) float64 {
	set1 := make(map[string]bool)
	set2 := make(map[string]bool)

	for _, g := range fm.generateNGrams(s1, 3) {
		set1[g] = true
	}
	for _, g := range fm.generateNGrams(s2, 3) {
		set2[g] = true
	}

	intersection := 0
	for g := range set1 {
		if set2[g] {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// Soundex implements the Soundex phonetic algorithm over ASCII letters
func (fm *FuzzyMatcher) Soundex(s string) string {
	letters := make([]rune, 0, len(s))
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return "0000"
	}

	mapping := map[rune]rune{
		'B': '1', 'F': '1', 'P': '1', 'V': '1',
		'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
		'D': '3', 'T': '3',
		'L': '4',
		'M': '5', 'N': '5',
		'R': '6',
	}

	result := []rune{letters[0]}
	prevCode := mapping[letters[0]]
	for _, char := range letters[1:] {
		code, ok := mapping[char]
		if !ok {
			prevCode = '0'
			continue
		}
		if code != prevCode {
			result = append(result, code)
			prevCode = code
		}
		if len(result) >= 4 {
			break
		}
	}

	for len(result) < 4 {
		result = append(result, '0')
	}

	return string(result[:4])
}
