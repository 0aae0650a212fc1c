package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/skinlens/internal/domain/model"
)

const pingTimeout = 5 * time.Second

// Schema creates the two tables the mirror writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS photos (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL DEFAULT '',
	analysis_id  TEXT NOT NULL DEFAULT '',
	storage_url  TEXT NOT NULL DEFAULT '',
	taken_at     TIMESTAMPTZ NOT NULL,
	metrics      JSONB NOT NULL,
	results      JSONB NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS photos_user_taken_idx ON photos (user_id, taken_at DESC);
CREATE TABLE IF NOT EXISTS chat_threads (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL DEFAULT '',
	messages   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const (
	upsertPhotoSQL = `INSERT INTO photos (id, user_id, analysis_id, storage_url, taken_at, metrics, results, content_hash)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	 ON CONFLICT (id) DO UPDATE
	 SET user_id = EXCLUDED.user_id,
	     analysis_id = EXCLUDED.analysis_id,
	     storage_url = EXCLUDED.storage_url,
	     taken_at = EXCLUDED.taken_at,
	     metrics = EXCLUDED.metrics,
	     results = EXCLUDED.results,
	     content_hash = EXCLUDED.content_hash,
	     updated_at = now()`

	deletePhotoSQL = `DELETE FROM photos WHERE id = $1`

	upsertThreadSQL = `INSERT INTO chat_threads (id, user_id, messages)
	 VALUES ($1, $2, $3)
	 ON CONFLICT (id) DO UPDATE
	 SET user_id = EXCLUDED.user_id,
	     messages = EXCLUDED.messages,
	     updated_at = now()`

	selectThreadSQL = `SELECT id, user_id, messages FROM chat_threads WHERE id = $1`
)

// Postgres is a Store backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, pings and applies Schema.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("docstore: connect: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// EnsureSchema creates missing tables.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("docstore: schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// Health pings the database.
func (p *Postgres) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) UpsertPhoto(ctx context.Context, rec model.PhotoRecord) error {
	args, err := photoArgs(rec)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, upsertPhotoSQL, args...); err != nil {
		return fmt.Errorf("docstore: upsert photo %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) DeletePhoto(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, deletePhotoSQL, id); err != nil {
		return fmt.Errorf("docstore: delete photo %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) UpsertThread(ctx context.Context, thread model.ChatThread) error {
	args, err := threadArgs(thread)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, upsertThreadSQL, args...); err != nil {
		return fmt.Errorf("docstore: upsert thread %s: %w", thread.ID, err)
	}
	return nil
}

func (p *Postgres) Thread(ctx context.Context, id string) (model.ChatThread, error) {
	var (
		thread   model.ChatThread
		messages []byte
	)
	err := p.pool.QueryRow(ctx, selectThreadSQL, id).Scan(&thread.ID, &thread.UserID, &messages)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ChatThread{}, fmt.Errorf("%w: thread %s", ErrNotFound, id)
	}
	if err != nil {
		return model.ChatThread{}, fmt.Errorf("docstore: thread %s: %w", id, err)
	}
	if err := json.Unmarshal(messages, &thread.Messages); err != nil {
		return model.ChatThread{}, fmt.Errorf("docstore: thread %s messages: %w", id, err)
	}
	return thread, nil
}

// photoArgs orders rec's columns for upsertPhotoSQL.
func photoArgs(rec model.PhotoRecord) ([]any, error) {
	metrics, err := json.Marshal(rec.Metrics)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode metrics: %w", err)
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode results: %w", err)
	}
	return []any{
		rec.ID, rec.UserID, rec.AnalysisID, rec.StorageURL,
		rec.Timestamp.UTC(), metrics, results, rec.ContentHash,
	}, nil
}

func threadArgs(thread model.ChatThread) ([]any, error) {
	messages := thread.Messages
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode messages: %w", err)
	}
	return []any{thread.ID, thread.UserID, data}, nil
}
