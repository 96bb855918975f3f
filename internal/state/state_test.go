package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager(t *testing.T) {
	m := NewSessionManager()

	first := m.Create()
	time.Sleep(time.Millisecond)
	second := m.Create()

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotNil(t, first.Cache)
	assert.Nil(t, first.Filtered)
	assert.Equal(t, []string{first.ID, second.ID}, m.IDs())

	got, ok := m.Get(second.ID)
	require.True(t, ok)
	assert.Same(t, second, got)

	assert.True(t, m.Delete(first.ID))
	assert.False(t, m.Delete(first.ID))
	_, ok = m.Get(first.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{second.ID}, m.IDs())
}

func TestSessionTouch(t *testing.T) {
	s := NewSessionManager().Create()
	before := s.UpdatedAt
	time.Sleep(time.Millisecond)

	s.Lock()
	s.Touch()
	s.Unlock()
	assert.True(t, s.UpdatedAt.After(before))
}

func TestDataFrame(t *testing.T) {
	df := &DataFrame{
		Headers: []string{"a", "b"},
		Rows:    [][]string{{"1"}},
	}
	assert.Equal(t, 1, df.ColumnIndex("b"))
	assert.Equal(t, -1, df.ColumnIndex("c"))
	assert.Equal(t, "1", df.Cell(df.Rows[0], 0))
	assert.Empty(t, df.Cell(df.Rows[0], 1))
	assert.Empty(t, df.Cell(df.Rows[0], -1))
}
