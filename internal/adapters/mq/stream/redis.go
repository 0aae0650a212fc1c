package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 5 * time.Second
	// defaultMaxLen caps the stream; trimming is approximate.
	defaultMaxLen = 10000
)

// RedisPublisher appends events to one stream with XADD.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// Option configures a RedisPublisher.
type Option func(*RedisPublisher)

// WithMaxLen sets the approximate stream cap. n <= 0 disables trimming.
func WithMaxLen(n int64) Option {
	return func(p *RedisPublisher) {
		p.maxLen = n
	}
}

// NewRedisPublisher dials addr and pings it before returning.
func NewRedisPublisher(addr, password string, db int, stream string, opts ...Option) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("stream: ping %s: %w", addr, err)
	}

	p := &RedisPublisher{client: client, stream: stream, maxLen: defaultMaxLen}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish writes event as JSON under the "payload" field.
func (p *RedisPublisher) Publish(ctx context.Context, event PhotoEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("stream: encode %s: %w", event.Type, err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":    event.Type,
			"payload": string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("stream: publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
