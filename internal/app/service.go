// Package service ties the vendor client, session, local history and the
// optional cloud mirror together into the operations the CLI and the
// companion API expose.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/skinlens/internal/adapters/docstore"
	"github.com/okian/skinlens/internal/adapters/mq/queue"
	"github.com/okian/skinlens/internal/adapters/mq/stream"
	workerpool "github.com/okian/skinlens/internal/adapters/mq/worker"
	"github.com/okian/skinlens/internal/adapters/repository"
	"github.com/okian/skinlens/internal/adapters/storage"
	"github.com/okian/skinlens/internal/adapters/vendor"
	"github.com/okian/skinlens/internal/domain/dedupe"
	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/internal/session"
	"github.com/okian/skinlens/pkg/logger"
)

// Service implements the skincare-analysis use cases.
type Service struct {
	mu sync.RWMutex

	// Core components
	client  *vendor.Client
	session *session.Store
	history repository.Store
	deduper dedupe.Deduper

	// Cloud mirror; each defaults to a no-op implementation.
	objects   storage.Store
	documents docstore.Store
	events    stream.Publisher

	// Batch analysis
	jobs        queue.Queue
	workerPool  *workerpool.Pool
	workerCount int
	queueSize   int
	dedupeSize  int

	// Chat threads seen by this process, keyed by thread id.
	threadsMu sync.Mutex
	threads   map[string]model.ChatThread

	// State
	started bool
	now     func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending batch jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many photo hashes are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRepository sets the local history store.
func WithRepository(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.history = store
		}
	}
}

// WithDeduper replaces the in-memory content-hash deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithObjectStore mirrors photo bytes to object storage.
func WithObjectStore(store storage.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.objects = store
		}
	}
}

// WithDocStore mirrors records and chat threads to a document store.
func WithDocStore(store docstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.documents = store
		}
	}
}

// WithPublisher emits photo events to a realtime stream.
func WithPublisher(p stream.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service around client. The session is the client's.
func New(client *vendor.Client, opts ...Option) *Service {
	s := &Service{
		client:      client,
		session:     client.Session(),
		workerCount: runtime.NumCPU(),
		queueSize:   64,
		dedupeSize:  1024,
		objects:     storage.NewNoopStore(),
		documents:   docstore.NewNoopStore(),
		events:      stream.NewNoopPublisher(),
		threads:     make(map[string]model.ChatThread),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.history == nil {
		s.history = repository.NewMemoryStore()
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	return s
}

// Session returns the session the service signs in to.
func (s *Service) Session() *session.Store { return s.session }

// Start launches the batch worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobs, batchAnalyzer{s: s})
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "skinlens service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the worker pool and closes every store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		s.started = false
	}

	if err := s.history.Close(); err != nil {
		s.logger.Warn(ctx, "close history", logger.Error(err))
	}
	_ = s.objects.Close()
	s.documents.Close()
	_ = s.events.Close()

	s.logger.Info(ctx, "skinlens service stopped")
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"signedIn":    s.session.SignedIn(),
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.deduper.Size(),
		"historySize": s.history.Count(ctx),
	}
	if s.started {
		stats["queueLength"] = s.jobs.Len(ctx)
	}
	return stats
}

// userID is the signed-in user's id, or "" when signed out.
func (s *Service) userID() string {
	if u := s.session.User(); u != nil {
		return u.ID
	}
	return ""
}

// batchAnalyzer adapts Service.Analyze to the worker's Analyzer.
type batchAnalyzer struct {
	s *Service
}

func (a batchAnalyzer) Analyze(ctx context.Context, photo model.Photo) (model.PhotoRecord, error) {
	return a.s.Analyze(ctx, photo, nil)
}

var _ workerpool.Analyzer = batchAnalyzer{}
