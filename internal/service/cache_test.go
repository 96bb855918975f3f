package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgpt/internal/models"
)

func newRow(id, text, sector, module string) models.QuestionRow {
	return models.QuestionRow{
		QuestionID:   id,
		QuestionText: text,
		SectorExpr:   sector,
		ModuleName:   models.ParseValue(module),
	}
}

func TestReconcile(t *testing.T) {
	existing := models.NewQACache()
	existing.Put(models.QACacheEntry{QuestionID: "1", QuestionText: "old text", Answer: "foo"})
	existing.Put(models.QACacheEntry{QuestionID: "9", Answer: "gone"})

	rows := []models.QuestionRow{
		newRow("2", "second", "FB", "M1"),
		newRow("1", "first", "All sectors", "NaN"),
	}
	got := Reconcile(rows, existing)

	want := []models.QACacheEntry{
		{QuestionID: "2", QuestionText: "second", Sector: "FB", ModuleName: "M1"},
		{QuestionID: "1", QuestionText: "first", Sector: "All sectors", ModuleName: "NaN", Answer: "foo"},
	}
	if diff := cmp.Diff(want, got.Entries()); diff != "" {
		t.Errorf("Reconcile mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.Has("9"))

	assert.Equal(t, 2, existing.Len(), "existing cache must not change")
	prev, _ := existing.Get("1")
	assert.Equal(t, "old text", prev.QuestionText)
}

func TestReconcileDropsAbsentAnswer(t *testing.T) {
	existing := models.NewQACache()
	existing.Put(models.QACacheEntry{QuestionID: "1", Answer: "foo"})

	got := Reconcile([]models.QuestionRow{newRow("2", "q", "FB", "M1")}, existing)
	assert.False(t, got.Has("1"))

	// Widening again does not bring the dropped answer back.
	got = Reconcile([]models.QuestionRow{newRow("1", "q", "FB", "M1"), newRow("2", "q", "FB", "M1")}, got)
	entry, ok := got.Get("1")
	require.True(t, ok)
	assert.Empty(t, entry.Answer)
}

func TestReconcileIdempotent(t *testing.T) {
	rows := []models.QuestionRow{newRow("1", "a", "FB", "M1"), newRow("2", "b", "AC", "M2")}
	existing := models.NewQACache()
	existing.Put(models.QACacheEntry{QuestionID: "2", Answer: "kept"})

	once := Reconcile(rows, existing)
	twice := Reconcile(rows, once)
	assert.Equal(t, once.Entries(), twice.Entries())
}

func TestReconcileNilExisting(t *testing.T) {
	got := Reconcile([]models.QuestionRow{newRow("1", "a", "FB", "M1")}, nil)
	assert.Equal(t, []string{"1"}, got.Keys())
}

func TestReplaceFromFile(t *testing.T) {
	file := models.QAFile{QA: []models.QARecord{
		{QuestionID: "7", Question: "seven", Answer: "a"},
		{QuestionID: "3", Question: "three", Answer: "b"},
		{QuestionID: "7", Question: "seven again", Answer: "c"},
	}}
	cache := ReplaceFromFile(file)

	assert.Equal(t, []string{"7", "3"}, cache.Keys())
	entry, _ := cache.Get("7")
	assert.Equal(t, models.QACacheEntry{QuestionID: "7", QuestionText: "seven again", Answer: "c"}, entry)
}

func TestEnsureEntries(t *testing.T) {
	cache := models.NewQACache()
	cache.Put(models.QACacheEntry{QuestionID: "1", Answer: "keep"})

	added := EnsureEntries(cache, []models.QuestionRow{newRow("1", "a", "FB", "M1"), newRow("2", "b", "AC", "M2")})
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"1", "2"}, cache.Keys())

	first, _ := cache.Get("1")
	assert.Equal(t, "keep", first.Answer)
	second, _ := cache.Get("2")
	assert.Equal(t, "b", second.QuestionText)

	assert.Zero(t, EnsureEntries(cache, []models.QuestionRow{newRow("2", "b", "AC", "M2")}))
}

func TestResetAnswers(t *testing.T) {
	cache := models.NewQACache()
	cache.Put(models.QACacheEntry{QuestionID: "1", Answer: "x"})
	cache.Put(models.QACacheEntry{QuestionID: "2", Answer: "y"})
	require.Equal(t, 2, cache.Answered())

	ResetAnswers(cache)
	assert.Equal(t, 2, cache.Len())
	assert.Zero(t, cache.Answered())
}

func TestBuildQAFile(t *testing.T) {
	cache := models.NewQACache()
	cache.Put(models.QACacheEntry{QuestionID: "1", QuestionText: "q1", Sector: "FB", Answer: "a1"})

	file := BuildQAFile(models.FilterSettings{Sectors: []string{"Food"}}, cache)
	assert.Equal(t, []models.QARecord{{QuestionID: "1", Question: "q1", Answer: "a1"}}, file.QA)
	assert.Equal(t, []string{"Food"}, file.Settings.Sectors)

	empty := BuildQAFile(models.FilterSettings{}, models.NewQACache())
	assert.NotNil(t, empty.QA)
	assert.Empty(t, empty.QA)
}
