package queue

import "time"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of pending jobs.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithRetryDelay sets how long Push waits before retrying a full queue.
func WithRetryDelay(d time.Duration) Option {
	return func(q *InMemoryQueue) {
		if d > 0 {
			q.retryDelay = d
		}
	}
}
