package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rpgpt/internal/models"
	"rpgpt/internal/service"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "snapshots.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFile() models.QAFile {
	return models.QAFile{
		Settings: models.FilterSettings{
			Sectors:     []string{"Food"},
			SupplyChain: []string{"Yes", "No"},
			IFRSS2:      []string{"NaN"},
			AFI:         []string{"No"},
			ModuleName:  []string{"M1"},
		},
		QA: []models.QARecord{
			{QuestionID: "1", Question: "Describe your governance.", Answer: "Board level."},
			{QuestionID: "2", Question: "Report food emissions."},
		},
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap, err := s.SaveSnapshot(ctx, "week 1", "session-1", sampleFile())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "week 1", snap.Name)
	assert.Equal(t, "session-1", snap.SessionID)
	assert.Equal(t, 2, snap.Questions)
	assert.Equal(t, 1, snap.Answered)
	assert.Positive(t, snap.Size)

	file, err := s.LoadSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleFile(), file)
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	list, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	first, err := s.SaveSnapshot(ctx, "first", "s", sampleFile())
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.SaveSnapshot(ctx, "second", "s", models.QAFile{})
	require.NoError(t, err)

	list, err = s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, 2, list[1].Questions)
	assert.WithinDuration(t, first.CreatedAt, list[1].CreatedAt, time.Microsecond)
}

func TestSnapshotNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LoadSnapshot(ctx, "missing")
	assert.True(t, service.IsCode(err, service.SnapshotNotFound))
	assert.True(t, service.IsCode(s.DeleteSnapshot(ctx, "missing"), service.SnapshotNotFound))
}

func TestDeleteSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap, err := s.SaveSnapshot(ctx, "qa_data", "s", sampleFile())
	require.NoError(t, err)
	require.NoError(t, s.DeleteSnapshot(ctx, snap.ID))

	_, err = s.LoadSnapshot(ctx, snap.ID)
	assert.True(t, service.IsCode(err, service.SnapshotNotFound))
}

func TestCorruptPayload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap, err := s.SaveSnapshot(ctx, "qa_data", "s", sampleFile())
	require.NoError(t, err)
	_, err = s.conn.Exec(`UPDATE snapshots SET payload = ? WHERE id = ?`, []byte("not zstd"), snap.ID)
	require.NoError(t, err)

	_, err = s.LoadSnapshot(ctx, snap.ID)
	assert.True(t, service.IsCode(err, service.InvalidPersistedFile))
}

func TestListSnapshotsRejectsBadTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap, err := s.SaveSnapshot(ctx, "qa_data", "s", sampleFile())
	require.NoError(t, err)
	_, err = s.conn.Exec(`UPDATE snapshots SET created_at = ? WHERE id = ?`, "last tuesday", snap.ID)
	require.NoError(t, err)

	_, err = s.ListSnapshots(ctx)
	assert.True(t, service.IsCode(err, service.InvalidPersistedFile))
}

func TestReopenKeepsSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	snap, err := s.SaveSnapshot(ctx, "qa_data", "s", sampleFile())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	file, err := s.LoadSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Len(t, file.QA, 2)
}
