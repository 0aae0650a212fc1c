// Package api serves the local companion HTTP API over the analysis service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/skinlens/internal/adapters/http/swagger"
	service "github.com/okian/skinlens/internal/app"
	"github.com/okian/skinlens/internal/domain/apierr"
	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	History(ctx context.Context, limit int) ([]model.PhotoRecord, error)
	Latest(ctx context.Context) (model.PhotoRecord, error)
	Photo(ctx context.Context, id string) (model.PhotoRecord, error)
	MetricDetail(ctx context.Context, id, key string) (service.MetricDetail, error)
	Analyze(ctx context.Context, photo model.Photo, onProgress service.ProgressFunc) (model.PhotoRecord, error)
	DeletePhoto(ctx context.Context, id string) error

	Masks(ctx context.Context, id string) ([]model.Mask, error)
	RequestMask(ctx context.Context, id, key string) (model.Mask, error)
	Compare(ctx context.Context, beforeID, afterID string) (model.Comparison, error)

	Profile(ctx context.Context) (model.Profile, error)
	Chat(ctx context.Context, threadID, message string) (model.ChatThread, error)
	Thread(ctx context.Context, id string) (model.ChatThread, error)

	Stats(ctx context.Context) map[string]any
}

const (
	defaultRequestTimeout = 3 * time.Minute
	defaultMaxUpload      = 16 << 20
	defaultHistoryLimit   = 50
)

// Server wires HTTP routes for the companion API.
type Server struct {
	deps           Dependencies
	origins        []string
	requestTimeout time.Duration
	maxUpload      int64
	log            logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithRequestTimeout bounds each request. Analysis includes polling, so
// keep this above the poll timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithMaxUpload caps the multipart body size for photo uploads.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// NewServer creates an API server bound to deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		origins:        []string{"*"},
		requestTimeout: defaultRequestTimeout,
		maxUpload:      defaultMaxUpload,
		log:            logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the routed handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", metricsHandler())
	r.Get("/stats", s.stats)
	swagger.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))

		r.Get("/profile", s.profile)

		r.Route("/photos", func(r chi.Router) {
			r.Get("/", s.listPhotos)
			r.Post("/", s.uploadPhoto)
			r.Get("/latest", s.latestPhoto)
			r.Get("/{photoID}", s.getPhoto)
			r.Delete("/{photoID}", s.deletePhoto)
			r.Get("/{photoID}/metrics/{key}", s.metricDetail)
			r.Get("/{photoID}/masks", s.listMasks)
			r.Post("/{photoID}/masks/{key}", s.requestMask)
		})
		r.Post("/compare", s.compare)

		r.Post("/chat", s.chat)
		r.Get("/chat/{threadID}", s.thread)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates a classified service failure into a response.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, apierr.KindTimeout.String(), err)
		return
	}
	kind := apierr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.log.Warn(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("kind", kind.String()),
			logger.Error(err),
		)
	}
	writeError(w, status, kind.String(), err)
}

func statusFor(kind apierr.Kind) int {
	switch kind {
	case apierr.KindValidation, apierr.KindInvalidOTP:
		return http.StatusBadRequest
	case apierr.KindUnauthorized:
		return http.StatusUnauthorized
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindAlreadyExists:
		return http.StatusConflict
	case apierr.KindTimeout:
		return http.StatusGatewayTimeout
	case apierr.KindTransport, apierr.KindServer, apierr.KindMapping:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
