package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skinlens/internal/adapters/mq/queue"
	"github.com/okian/skinlens/internal/adapters/repository"
	"github.com/okian/skinlens/internal/domain/apierr"
	"github.com/okian/skinlens/internal/domain/dedupe"
	"github.com/okian/skinlens/internal/domain/mapping"
	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/logger"
	"github.com/okian/skinlens/pkg/metrics"
)

const opAnalyze = "analyze"

// Stage names a step of the capture-to-result flow.
type Stage string

// Analysis stages, in order.
const (
	StageUploading Stage = "uploading"
	StageAnalyzing Stage = "analyzing"
	StageMapping   Stage = "mapping"
	StageCompleted Stage = "completed"
)

// Progress is reported as an analysis moves through its stages.
type Progress struct {
	PhotoID  string `json:"photoId"`
	Filename string `json:"filename"`
	Stage    Stage  `json:"stage"`
	Percent  int    `json:"percent"`
}

// ProgressFunc receives progress updates. It runs on the analysing goroutine.
type ProgressFunc func(Progress)

var allowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

func validateImage(op, filename string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return apierr.Validation(op, fmt.Sprintf("unsupported image type %q, use .jpg, .jpeg or .png", ext))
	}
	if len(data) == 0 {
		return apierr.Validation(op, "image is empty")
	}
	return nil
}

// Analyze uploads photo, waits for the vendor's results, maps them and saves
// the record to history. Identical bytes already in history return the
// existing record; identical bytes still being analysed are refused.
func (s *Service) Analyze(ctx context.Context, photo model.Photo, onProgress ProgressFunc) (model.PhotoRecord, error) {
	if err := validateImage(opAnalyze, photo.Filename, photo.Data); err != nil {
		return model.PhotoRecord{}, err
	}
	if !s.session.SignedIn() {
		return model.PhotoRecord{}, apierr.New(apierr.KindUnauthorized, opAnalyze, "sign in before analyzing photos")
	}

	start := s.now()
	photoID := uuid.NewString()
	hash := dedupe.Hash(photo.Data)

	if owner, seen := s.deduper.SeenAndRecord(ctx, hash, photoID); seen {
		metrics.RecordPhotoDuplicate()
		if rec, err := s.history.Get(ctx, owner); err == nil {
			s.logger.Info(ctx, "photo already analysed",
				logger.String("photoID", owner),
				logger.String("filename", photo.Filename),
			)
			return rec, nil
		}
		return model.PhotoRecord{}, apierr.New(apierr.KindAlreadyExists, opAnalyze,
			fmt.Sprintf("%s is already being analyzed as %s", photo.Filename, owner))
	}

	report := func(stage Stage, percent int) {
		if onProgress != nil {
			onProgress(Progress{PhotoID: photoID, Filename: photo.Filename, Stage: stage, Percent: percent})
		}
	}

	rec, err := s.analyze(ctx, photoID, hash, photo, report)
	if err != nil {
		s.deduper.Unrecord(ctx, hash)
		metrics.RecordAnalysisFailed(apierr.KindOf(err).String())
		s.logger.Error(ctx, "analysis failed",
			logger.String("photoID", photoID),
			logger.String("filename", photo.Filename),
			logger.Error(err),
		)
		return model.PhotoRecord{}, err
	}

	metrics.RecordAnalysisCompleted(float64(s.now().Sub(start).Milliseconds()))
	report(StageCompleted, 100)
	return rec, nil
}

func (s *Service) analyze(ctx context.Context, photoID, hash string, photo model.Photo, report func(Stage, int)) (model.PhotoRecord, error) {
	report(StageUploading, 25)
	sub, err := s.client.SubmitPhoto(ctx, photo.Filename, photo.Data)
	if err != nil {
		return model.PhotoRecord{}, err
	}

	report(StageAnalyzing, 50)
	raw, err := s.client.PollResults(ctx, sub.ID)
	if err != nil {
		return model.PhotoRecord{}, err
	}

	report(StageMapping, 90)
	entries, normalized, err := mapping.MapPayload(raw)
	if err != nil {
		return model.PhotoRecord{}, apierr.Wrap(apierr.KindMapping, opAnalyze, err)
	}
	if normalized.Len() == 0 {
		metrics.RecordMappingMiss()
		s.logger.Warn(ctx, "no known metrics in vendor results",
			logger.String("analysisID", sub.ID),
			logger.Int("entries", len(entries)),
		)
	}

	rec := model.PhotoRecord{
		ID:          photoID,
		StorageURL:  sub.StorageURL,
		Timestamp:   s.now().UTC(),
		Metrics:     normalized,
		Results:     model.Results{AreaResults: entries},
		AnalysisID:  sub.ID,
		UserID:      s.userID(),
		ContentHash: hash,
	}

	if url := s.mirrorBlob(ctx, rec, photo); url != "" {
		rec.StorageURL = url
	}
	if err := s.history.Save(ctx, rec); err != nil {
		return model.PhotoRecord{}, fmt.Errorf("save history: %w", err)
	}
	s.mirrorRecord(ctx, rec)

	s.logger.Info(ctx, "photo analysed",
		logger.String("photoID", rec.ID),
		logger.String("analysisID", rec.AnalysisID),
		logger.Int("metrics", normalized.Len()),
	)
	return rec, nil
}

// BatchItem is the outcome for one photo of a batch, in input order.
type BatchItem struct {
	Filename string
	Record   model.PhotoRecord
	Err      error
}

// AnalyzeBatch runs photos through the worker pool and waits for all of
// them. Cancelling ctx cancels pending analyses; their items carry the
// context error.
func (s *Service) AnalyzeBatch(ctx context.Context, photos []model.Photo) ([]BatchItem, error) {
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}
	s.mu.RLock()
	started, jobs := s.started, s.jobs
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	start := time.Now()
	items := make([]BatchItem, len(photos))
	for i, p := range photos {
		items[i].Filename = p.Filename
	}

	replies := make(chan queue.Result, len(photos))
	pending := 0
	for i, p := range photos {
		job := queue.Job{ID: uuid.NewString(), Index: i, Photo: p, Reply: replies, Done: ctx.Done()}
		if err := jobs.Push(ctx, job); err != nil {
			for j := i; j < len(photos); j++ {
				items[j].Err = err
			}
			break
		}
		pending++
	}

	for ; pending > 0; pending-- {
		select {
		case res := <-replies:
			items[res.Index].Record = res.Record
			items[res.Index].Err = res.Err
		case <-ctx.Done():
			for i := range items {
				if items[i].Err == nil && items[i].Record.ID == "" {
					items[i].Err = ctx.Err()
				}
			}
			return items, ctx.Err()
		}
	}

	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	s.logger.Info(ctx, "batch finished",
		logger.Int("photos", len(photos)),
		logger.Int("failed", failed),
		logger.Duration("elapsed", time.Since(start)),
	)
	return items, nil
}

// notFound converts a repository miss into a typed error.
func notFound(op, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &apierr.Error{Kind: apierr.KindNotFound, Op: op, Message: "photo " + id + " not found", Err: err}
	}
	return err
}
