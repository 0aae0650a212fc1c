package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS photos (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL DEFAULT '',
	analysis_id  TEXT NOT NULL DEFAULT '',
	storage_url  TEXT NOT NULL DEFAULT '',
	taken_at     INTEGER NOT NULL,
	metrics      TEXT NOT NULL,
	results      TEXT NOT NULL,
	content_hash TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_photos_user_taken ON photos(user_id, taken_at DESC);`

const photoColumns = `id, user_id, analysis_id, storage_url, taken_at, metrics, results, content_hash`

// SQLiteStore persists history in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at filePath.
func NewSQLiteStore(filePath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	st := &SQLiteStore{db: db}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, rec model.PhotoRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return ErrMissingID
	}
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	resultsJSON, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO photos (`+photoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.AnalysisID,
		rec.StorageURL,
		rec.Timestamp.UnixNano(),
		string(metricsJSON),
		string(resultsJSON),
		rec.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("save photo %s: %w", rec.ID, err)
	}
	metrics.UpdateHistorySize(s.Count(ctx))
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.PhotoRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	rec, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PhotoRecord{}, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]model.PhotoRecord, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	query := `SELECT ` + photoColumns + ` FROM photos`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY taken_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.PhotoRecord, 0)
	for rows.Next() {
		rec, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Latest(ctx context.Context, userID string) (model.PhotoRecord, error) {
	recs, err := s.List(ctx, userID, 1)
	if err != nil {
		return model.PhotoRecord{}, err
	}
	if len(recs) == 0 {
		return model.PhotoRecord{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	metrics.UpdateHistorySize(s.Count(ctx))
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&n); err != nil {
		return 0
	}
	return n
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row scanner) (model.PhotoRecord, error) {
	var (
		rec         model.PhotoRecord
		takenAt     int64
		metricsJSON string
		resultsJSON string
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.AnalysisID,
		&rec.StorageURL,
		&takenAt,
		&metricsJSON,
		&resultsJSON,
		&rec.ContentHash,
	)
	if err != nil {
		return model.PhotoRecord{}, err
	}
	rec.Timestamp = time.Unix(0, takenAt).UTC()
	if err := json.Unmarshal([]byte(metricsJSON), &rec.Metrics); err != nil {
		return model.PhotoRecord{}, fmt.Errorf("decode metrics %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &rec.Results); err != nil {
		return model.PhotoRecord{}, fmt.Errorf("decode results %s: %w", rec.ID, err)
	}
	return rec, nil
}
