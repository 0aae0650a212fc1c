// Package dedupe tracks photo content already submitted for analysis.
package dedupe

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 1024

// Deduper maps photo content hashes to the photo id that claimed them.
type Deduper interface {
	// SeenAndRecord atomically checks whether hash was seen and records it
	// for photoID if not. It returns the owning photo id and true when the
	// hash was already present, or photoID and false when newly recorded.
	SeenAndRecord(ctx context.Context, hash, photoID string) (string, bool)

	// Unrecord removes hash so the same content can be analyzed again,
	// e.g. after the analysis failed or the photo was deleted.
	Unrecord(ctx context.Context, hash string)

	Size() int64
}

// Hash returns the hex SHA-256 of a photo's bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type claim struct {
	hash    string
	photoID string
}

// inMemoryDeduper implements Deduper with a map and an insertion-ordered list.
// For bounded mode (maxSize > 0) the oldest claim is evicted when full.
// For unbounded mode (maxSize <= 0) nothing is evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = newest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*list.Element)
	d.order = list.New()

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, hash, photoID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, exists := d.seen[hash]; exists {
		return el.Value.(*claim).photoID, true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	d.seen[hash] = d.order.PushFront(&claim{hash: hash, photoID: photoID})
	d.size.Add(1)
	return photoID, false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, hash string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, exists := d.seen[hash]; exists {
		d.order.Remove(el)
		delete(d.seen, hash)
		d.size.Add(-1)
	}
}

// evictOldest drops the least recently added claim. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(*claim).hash)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
