package service

import (
	"context"
	"errors"

	"github.com/okian/skinlens/internal/adapters/docstore"
	"github.com/okian/skinlens/internal/adapters/mq/stream"
	"github.com/okian/skinlens/internal/adapters/storage"
	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/logger"
	"github.com/okian/skinlens/pkg/metrics"
)

// Mirror targets, as reported in metrics.
const (
	mirrorBlob     = "blob"
	mirrorDocument = "document"
	mirrorEvent    = "event"
)

// mirrored records the outcome of one mirror write. Mirror failures never
// fail the local operation.
func (s *Service) mirrored(ctx context.Context, target, photoID string, err error) bool {
	switch {
	case err == nil:
		metrics.RecordMirror(target, "ok")
		return true
	case errors.Is(err, storage.ErrNotConfigured),
		errors.Is(err, docstore.ErrNotConfigured),
		errors.Is(err, stream.ErrNotConfigured):
		metrics.RecordMirror(target, "skipped")
	default:
		metrics.RecordMirror(target, "error")
		s.logger.Warn(ctx, "mirror write failed",
			logger.String("target", target),
			logger.String("photoID", photoID),
			logger.Error(err),
		)
	}
	return false
}

// mirrorBlob uploads the photo bytes and returns their location, or "".
func (s *Service) mirrorBlob(ctx context.Context, rec model.PhotoRecord, photo model.Photo) string {
	key, err := storage.PhotoKey(rec.UserID, rec.ID)
	if err != nil {
		s.mirrored(ctx, mirrorBlob, rec.ID, err)
		return ""
	}
	url, err := s.objects.Put(ctx, key, photo.Data, storage.ContentType(photo.Filename))
	if !s.mirrored(ctx, mirrorBlob, rec.ID, err) {
		return ""
	}
	return url
}

// mirrorRecord writes the record document and announces it.
func (s *Service) mirrorRecord(ctx context.Context, rec model.PhotoRecord) {
	s.mirrored(ctx, mirrorDocument, rec.ID, s.documents.UpsertPhoto(ctx, rec))
	s.mirrored(ctx, mirrorEvent, rec.ID, s.events.Publish(ctx, photoEvent(stream.EventPhotoAnalyzed, rec)))
}

// mirrorDelete removes every mirrored copy of rec.
func (s *Service) mirrorDelete(ctx context.Context, rec model.PhotoRecord) {
	if key, err := storage.PhotoKey(rec.UserID, rec.ID); err == nil {
		s.mirrored(ctx, mirrorBlob, rec.ID, s.objects.Delete(ctx, key))
	}
	s.mirrored(ctx, mirrorDocument, rec.ID, s.documents.DeletePhoto(ctx, rec.ID))
	s.mirrored(ctx, mirrorEvent, rec.ID, s.events.Publish(ctx, photoEvent(stream.EventPhotoDeleted, rec)))
}

func photoEvent(kind string, rec model.PhotoRecord) stream.PhotoEvent {
	ev := stream.PhotoEvent{
		Type:       kind,
		PhotoID:    rec.ID,
		UserID:     rec.UserID,
		AnalysisID: rec.AnalysisID,
		StorageURL: rec.StorageURL,
	}
	if kind == stream.EventPhotoAnalyzed {
		ev.Metrics = make(map[string]float64, rec.Metrics.Len())
		for _, key := range rec.Metrics.Keys() {
			v, _ := rec.Metrics.Get(key)
			if f, ok := v.Float(); ok {
				ev.Metrics[key] = f
			}
		}
	}
	return ev
}
