package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/logger"
)

// GET /photos?limit=N
func (s *Server) listPhotos(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a non-negative integer", ErrBadRequest))
			return
		}
		limit = n
	}
	recs, err := s.deps.History(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.PhotoRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) latestPhoto(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Latest(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getPhoto(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Photo(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeletePhoto(r.Context(), chi.URLParam(r, "photoID")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) metricDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.MetricDetail(r.Context(), chi.URLParam(r, "photoID"), chi.URLParam(r, "key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// POST /photos with a multipart "image" field. The analysis runs to
// completion before the response is written.
func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingImage)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	rec, err := s.deps.Analyze(r.Context(), model.Photo{Filename: header.Filename, Data: data}, nil)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "photo analyzed via api",
		logger.String("photo_id", rec.ID),
		logger.Int("metrics", rec.Metrics.Len()),
	)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listMasks(w http.ResponseWriter, r *http.Request) {
	masks, err := s.deps.Masks(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if masks == nil {
		masks = []model.Mask{}
	}
	writeJSON(w, http.StatusOK, masks)
}

func (s *Server) requestMask(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.RequestMask(r.Context(), chi.URLParam(r, "photoID"), chi.URLParam(r, "key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type compareRequest struct {
	BeforeID string `json:"beforeId"`
	AfterID  string `json:"afterId"`
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	cmp, err := s.deps.Compare(r.Context(), req.BeforeID, req.AfterID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}
