package service

import (
	"context"
	"errors"

	"github.com/okian/skinlens/internal/domain/apierr"
	"github.com/okian/skinlens/internal/domain/mapping"
	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/internal/domain/trend"
	"github.com/okian/skinlens/pkg/logger"
)

// History returns the signed-in user's records, newest first. limit 0
// returns everything.
func (s *Service) History(ctx context.Context, limit int) ([]model.PhotoRecord, error) {
	if limit < 0 {
		return nil, apierr.Validation("history", "limit must not be negative")
	}
	return s.history.List(ctx, s.userID(), limit)
}

// Photo returns one record from history.
func (s *Service) Photo(ctx context.Context, id string) (model.PhotoRecord, error) {
	rec, err := s.history.Get(ctx, id)
	if err != nil {
		return model.PhotoRecord{}, notFound("photo", id, err)
	}
	return rec, nil
}

// Latest returns the newest record, the one the home view shows.
func (s *Service) Latest(ctx context.Context) (model.PhotoRecord, error) {
	rec, err := s.history.Latest(ctx, s.userID())
	if err != nil {
		return model.PhotoRecord{}, notFound("latest", "latest", err)
	}
	return rec, nil
}

// DeletePhoto removes the photo at the vendor, from history and from the
// mirror. A photo the vendor no longer knows is still removed locally.
func (s *Service) DeletePhoto(ctx context.Context, id string) error {
	rec, err := s.Photo(ctx, id)
	if err != nil {
		return err
	}
	if rec.AnalysisID != "" {
		if err := s.client.DeletePhoto(ctx, rec.AnalysisID); err != nil && !errors.Is(err, apierr.ErrNotFound) {
			return err
		}
	}
	if err := s.history.Delete(ctx, id); err != nil {
		return notFound("delete-photo", id, err)
	}
	if rec.ContentHash != "" {
		s.deduper.Unrecord(ctx, rec.ContentHash)
	}
	s.mirrorDelete(ctx, rec)
	s.logger.Info(ctx, "photo deleted", logger.String("photoID", id))
	return nil
}

// MetricDetail is one metric of one photo, ready for display.
type MetricDetail struct {
	PhotoID  string        `json:"photoId"`
	Key      string        `json:"key"`
	TechName string        `json:"techName"`
	Label    string        `json:"label"`
	Kind     mapping.Kind  `json:"kind"`
	Value    model.Value   `json:"value"`
	Display  string        `json:"display"`
	History  []trend.Point `json:"history,omitempty"`
}

// MetricDetail looks up key on photo id and adds the metric's history
// across the user's photos.
func (s *Service) MetricDetail(ctx context.Context, id, key string) (MetricDetail, error) {
	info, ok := mapping.Lookup(key)
	if !ok {
		return MetricDetail{}, apierr.New(apierr.KindNotFound, "metric-detail", "unknown metric "+key)
	}
	rec, err := s.Photo(ctx, id)
	if err != nil {
		return MetricDetail{}, err
	}
	v, ok := rec.Metrics.Get(info.Key)
	if !ok {
		return MetricDetail{}, apierr.New(apierr.KindNotFound, "metric-detail",
			"photo "+id+" has no value for "+info.Key)
	}

	detail := MetricDetail{
		PhotoID:  rec.ID,
		Key:      info.Key,
		TechName: info.TechName,
		Label:    info.Label,
		Kind:     info.Kind,
		Value:    v,
		Display:  mapping.Display(info, v),
	}
	if all, err := s.history.List(ctx, rec.UserID, 0); err == nil {
		detail.History = trend.Series(all, info.Key)
	}
	return detail, nil
}

// RequestMask asks the vendor to render the overlay of key on photo id.
func (s *Service) RequestMask(ctx context.Context, id, key string) (model.Mask, error) {
	info, ok := mapping.Lookup(key)
	if !ok {
		return model.Mask{}, apierr.Validation("request-mask", "unknown metric "+key)
	}
	rec, err := s.Photo(ctx, id)
	if err != nil {
		return model.Mask{}, err
	}
	return s.client.RequestMask(ctx, rec.AnalysisID, info.TechName)
}

// Masks lists rendered overlays for photo id.
func (s *Service) Masks(ctx context.Context, id string) ([]model.Mask, error) {
	rec, err := s.Photo(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.client.Masks(ctx, rec.AnalysisID)
}

// Compare computes local per-metric deltas and adds the vendor's comparison
// when the vendor answers.
func (s *Service) Compare(ctx context.Context, beforeID, afterID string) (model.Comparison, error) {
	if beforeID == afterID {
		return model.Comparison{}, apierr.Validation("compare", "pick two different photos")
	}
	before, err := s.Photo(ctx, beforeID)
	if err != nil {
		return model.Comparison{}, err
	}
	after, err := s.Photo(ctx, afterID)
	if err != nil {
		return model.Comparison{}, err
	}

	cmp := model.Comparison{
		BeforeID: beforeID,
		AfterID:  afterID,
		Deltas:   trend.Compare(before.Metrics, after.Metrics),
	}
	if before.AnalysisID != "" && after.AnalysisID != "" {
		vendorCmp, err := s.client.Compare(ctx, before.AnalysisID, after.AnalysisID)
		if err != nil {
			s.logger.Warn(ctx, "vendor comparison unavailable, using local deltas", logger.Error(err))
		} else {
			cmp.Vendor = vendorCmp
		}
	}
	return cmp, nil
}
