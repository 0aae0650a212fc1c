// Package docstore mirrors photo records and chat threads to a document
// database.
package docstore

import (
	"context"
	"errors"

	"github.com/okian/skinlens/internal/domain/model"
)

var (
	// ErrNotConfigured is returned by NoopStore for every write and read.
	ErrNotConfigured = errors.New("docstore: not configured")
	// ErrNotFound is returned when a thread does not exist.
	ErrNotFound = errors.New("docstore: not found")
)

// Store persists documents keyed by id.
type Store interface {
	UpsertPhoto(ctx context.Context, rec model.PhotoRecord) error
	DeletePhoto(ctx context.Context, id string) error
	UpsertThread(ctx context.Context, thread model.ChatThread) error
	Thread(ctx context.Context, id string) (model.ChatThread, error)
	Close()
}

// NoopStore is used when no database is configured.
type NoopStore struct{}

// NewNoopStore returns a store that refuses every call.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (NoopStore) UpsertPhoto(context.Context, model.PhotoRecord) error { return ErrNotConfigured }
func (NoopStore) DeletePhoto(context.Context, string) error            { return ErrNotConfigured }
func (NoopStore) UpsertThread(context.Context, model.ChatThread) error { return ErrNotConfigured }
func (NoopStore) Thread(context.Context, string) (model.ChatThread, error) {
	return model.ChatThread{}, ErrNotConfigured
}
func (NoopStore) Close() {}
