// Package storage mirrors analysed photos to object storage.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned by NoopStore for every operation.
var ErrNotConfigured = errors.New("storage: object store not configured")

// ErrEmptyKey is returned when a key component is blank.
var ErrEmptyKey = errors.New("storage: empty key")

const anonymousUser = "anonymous"

// Store holds photo blobs keyed by PhotoKey.
type Store interface {
	// Put uploads data and returns the object's location.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// PhotoKey builds users/{uid}/photos/{photoID}. A blank user maps to
// "anonymous" so signed-out captures still get a stable prefix.
func PhotoKey(userID, photoID string) (string, error) {
	photoID = strings.Trim(strings.TrimSpace(photoID), "/")
	if photoID == "" {
		return "", ErrEmptyKey
	}
	userID = strings.Trim(strings.TrimSpace(userID), "/")
	if userID == "" {
		userID = anonymousUser
	}
	return "users/" + userID + "/photos/" + photoID, nil
}

// ContentType guesses the image MIME type from a filename.
func ContentType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// NoopStore is used when no bucket is configured.
type NoopStore struct{}

// NewNoopStore returns a store that refuses every call.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) Put(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	return "", ErrNotConfigured
}

func (s *NoopStore) Get(_ context.Context, _ string) ([]byte, string, error) {
	return nil, "", ErrNotConfigured
}

func (s *NoopStore) Delete(_ context.Context, _ string) error {
	return ErrNotConfigured
}

func (s *NoopStore) Close() error {
	return nil
}
