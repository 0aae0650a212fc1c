// Package stream publishes photo lifecycle events to a Redis stream so other
// devices of the same user can react in near real time.
package stream

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by NoopPublisher.
var ErrNotConfigured = errors.New("stream: publisher not configured")

// Event types.
const (
	EventPhotoAnalyzed = "photo.analyzed"
	EventPhotoDeleted  = "photo.deleted"
)

// PhotoEvent is the payload written to the stream.
type PhotoEvent struct {
	Type       string             `json:"type"`
	PhotoID    string             `json:"photoId"`
	UserID     string             `json:"userId,omitempty"`
	AnalysisID string             `json:"analysisId,omitempty"`
	StorageURL string             `json:"storageUrl,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	At         time.Time          `json:"at"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, event PhotoEvent) error
	Close() error
}

// NoopPublisher is used when no Redis address is configured.
type NoopPublisher struct{}

// NewNoopPublisher returns a publisher that refuses every event.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) Publish(_ context.Context, _ PhotoEvent) error {
	return ErrNotConfigured
}

func (p *NoopPublisher) Close() error {
	return nil
}
