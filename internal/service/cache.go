package service

import (
	"rpgpt/internal/models"
)

// Reconcile rebuilds the answer cache from a filtered view. Every row gets
// an entry with its current text, sector and module; the answer is carried
// over from existing when the question id is already cached. Ids absent
// from rows are dropped. existing is not modified.
func Reconcile(rows []models.QuestionRow, existing *models.QACache) *models.QACache {
	out := models.NewQACache()
	for _, row := range rows {
		answer := ""
		if prev, ok := existing.Get(row.QuestionID); ok {
			answer = prev.Answer
		}
		out.Put(entryFor(row, answer))
	}
	return out
}

// ReplaceFromFile installs the qa list of a Q&A file verbatim as a new
// cache. Nothing is checked against the dataset. A repeated question id
// keeps its first position and its last record.
func ReplaceFromFile(file models.QAFile) *models.QACache {
	out := models.NewQACache()
	for _, rec := range file.QA {
		out.Put(models.QACacheEntry{
			QuestionID:   rec.QuestionID,
			QuestionText: rec.Question,
			Answer:       rec.Answer,
		})
	}
	return out
}

// EnsureEntries adds an empty-answer entry for every row not yet cached
// and returns how many were added. Existing entries are left alone.
func EnsureEntries(cache *models.QACache, rows []models.QuestionRow) int {
	added := 0
	for _, row := range rows {
		if cache.Has(row.QuestionID) {
			continue
		}
		cache.Put(entryFor(row, ""))
		added++
	}
	return added
}

// ResetAnswers clears every answer and keeps the entries.
func ResetAnswers(cache *models.QACache) {
	for _, id := range cache.Keys() {
		cache.SetAnswer(id, "")
	}
}

// BuildQAFile assembles the save file for settings and cache.
func BuildQAFile(settings models.FilterSettings, cache *models.QACache) models.QAFile {
	file := models.QAFile{
		Settings: settings,
		QA:       make([]models.QARecord, 0, cache.Len()),
	}
	for _, e := range cache.Entries() {
		file.QA = append(file.QA, models.QARecord{
			QuestionID: e.QuestionID,
			Question:   e.QuestionText,
			Answer:     e.Answer,
		})
	}
	return file
}

func entryFor(row models.QuestionRow, answer string) models.QACacheEntry {
	return models.QACacheEntry{
		QuestionID:   row.QuestionID,
		QuestionText: row.QuestionText,
		Sector:       row.SectorExpr,
		ModuleName:   row.ModuleName.Token(),
		Answer:       answer,
	}
}
