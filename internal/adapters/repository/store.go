// Package repository keeps the local history of analysed photos.
package repository

import (
	"context"
	"sort"

	"github.com/okian/skinlens/internal/domain/model"
)

// Store provides read/write access to photo history.
type Store interface {
	// Save inserts rec or replaces the record with the same ID.
	Save(ctx context.Context, rec model.PhotoRecord) error

	// Get returns ErrNotFound if id is unknown.
	Get(ctx context.Context, id string) (model.PhotoRecord, error)

	// List returns records newest first. An empty userID matches every user;
	// limit 0 means no limit.
	List(ctx context.Context, userID string, limit int) ([]model.PhotoRecord, error)

	// Latest returns the newest record for userID, or ErrNotFound.
	Latest(ctx context.Context, userID string) (model.PhotoRecord, error)

	// Delete removes id. Deleting an unknown id returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	Close() error
}

// newerFirst orders by timestamp desc, then ID desc so equal times are stable.
func newerFirst(a, b model.PhotoRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

func sortNewestFirst(recs []model.PhotoRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return newerFirst(recs[i], recs[j]) })
}
