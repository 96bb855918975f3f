package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"rpgpt/internal/models"
	"rpgpt/internal/service"
)

// Fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps named Q&A snapshots in a SQLite database. Payloads are the
// Q&A file JSON, zstd-compressed.
type Store struct {
	conn    *sql.DB
	logger  *zap.Logger
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the snapshot database at dbPath
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under load
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	s := &Store{
		conn:    conn,
		logger:  logger,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
	}
	if err := s.initializeSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	logger.Info("snapshot store ready", zap.String("path", dbPath))
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			session_id TEXT NOT NULL,
			questions INTEGER NOT NULL DEFAULT 0,
			answered INTEGER NOT NULL DEFAULT 0,
			size INTEGER NOT NULL DEFAULT 0,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	s.decoder.Close()
	_ = s.encoder.Close()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// SaveSnapshot stores file under name
func (s *Store) SaveSnapshot(ctx context.Context, name, sessionID string, file models.QAFile) (models.Snapshot, error) {
	var buf bytes.Buffer
	if err := service.EncodeQAFile(&buf, file); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	payload := s.encoder.EncodeAll(buf.Bytes(), nil)

	answered := 0
	for _, rec := range file.QA {
		if rec.Answer != "" {
			answered++
		}
	}
	snap := models.Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		SessionID: sessionID,
		Questions: len(file.QA),
		Answered:  answered,
		Size:      buf.Len(),
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO snapshots (id, name, session_id, questions, answered, size, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query,
		snap.ID,
		snap.Name,
		snap.SessionID,
		snap.Questions,
		snap.Answered,
		snap.Size,
		payload,
		snap.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return models.Snapshot{}, service.NewError(service.StoreUnavailable, "failed to save snapshot", err)
	}

	s.logger.Debug("snapshot stored",
		zap.String("id", snap.ID),
		zap.Int("raw_bytes", buf.Len()),
		zap.Int("stored_bytes", len(payload)),
	)
	return snap, nil
}

// LoadSnapshot returns the Q&A file of a snapshot
func (s *Store) LoadSnapshot(ctx context.Context, id string) (models.QAFile, error) {
	var payload []byte
	err := s.conn.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.QAFile{}, notFound(id)
	}
	if err != nil {
		return models.QAFile{}, service.NewError(service.StoreUnavailable, "failed to read snapshot", err)
	}

	raw, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		return models.QAFile{}, service.NewError(service.InvalidPersistedFile, "snapshot payload is corrupt", err)
	}
	return service.DecodeQAFile(bytes.NewReader(raw))
}

// ListSnapshots returns all snapshots, newest first
func (s *Store) ListSnapshots(ctx context.Context) ([]models.Snapshot, error) {
	query := `
		SELECT id, name, session_id, questions, answered, size, created_at
		FROM snapshots
		ORDER BY created_at DESC
	`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, service.NewError(service.StoreUnavailable, "failed to list snapshots", err)
	}
	defer rows.Close()

	snaps := []models.Snapshot{}
	for rows.Next() {
		var snap models.Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.SessionID, &snap.Questions, &snap.Answered, &snap.Size, &createdAt); err != nil {
			return nil, err
		}
		snap.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, service.NewError(service.InvalidPersistedFile,
				fmt.Sprintf("snapshot %q has an unreadable created_at", snap.ID), err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DeleteSnapshot removes a snapshot
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return service.NewError(service.StoreUnavailable, "failed to delete snapshot", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id string) error {
	return service.NewError(service.SnapshotNotFound, fmt.Sprintf("snapshot %q not found", id), nil)
}
