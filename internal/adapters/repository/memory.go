package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/metrics"
)

// MemoryStore is an in-process Store. Records are kept sorted newest first.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]model.PhotoRecord
	ordered    []model.PhotoRecord
	maxRecords int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]model.PhotoRecord)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, rec model.PhotoRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID]; ok {
		s.removeLocked(rec.ID)
	}
	s.byID[rec.ID] = rec

	i := 0
	for i < len(s.ordered) && newerFirst(s.ordered[i], rec) {
		i++
	}
	s.ordered = append(s.ordered, model.PhotoRecord{})
	copy(s.ordered[i+1:], s.ordered[i:])
	s.ordered[i] = rec

	for s.maxRecords > 0 && len(s.ordered) > s.maxRecords {
		oldest := s.ordered[len(s.ordered)-1]
		s.removeLocked(oldest.ID)
	}
	metrics.UpdateHistorySize(len(s.ordered))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.PhotoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return model.PhotoRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context, userID string, limit int) ([]model.PhotoRecord, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.PhotoRecord, 0, len(s.ordered))
	for _, rec := range s.ordered {
		if userID != "" && rec.UserID != userID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Latest(ctx context.Context, userID string) (model.PhotoRecord, error) {
	recs, err := s.List(ctx, userID, 1)
	if err != nil {
		return model.PhotoRecord{}, err
	}
	if len(recs) == 0 {
		return model.PhotoRecord{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	s.removeLocked(id)
	metrics.UpdateHistorySize(len(s.ordered))
	return nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) removeLocked(id string) {
	delete(s.byID, id)
	for i := range s.ordered {
		if s.ordered[i].ID == id {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			return
		}
	}
}
