package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxRecords bounds the in-memory history; the oldest records are
// evicted first. n <= 0 keeps everything.
func WithMaxRecords(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}
