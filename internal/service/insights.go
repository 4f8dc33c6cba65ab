// Package service wires the index builder, search engine and ruminator behind one facade.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"insights/internal/domain"
	"insights/internal/index"
	"insights/internal/rumination"
	"insights/internal/search"
)

const (
	NoticeIndexReady  = "index ready"
	NoticeIndexFailed = "index failed"
	NoticeDenseOff    = "dense embeddings unavailable, index is TF-IDF only"
)

// Stats describes the published index.
type Stats struct {
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
	Dense      bool      `json:"dense"`
	BuiltAt    time.Time `json:"built_at"`
	Rumination string    `json:"rumination"`
}

// Insights owns the current index snapshot. Rebuilds are serialized; readers always see a
// complete snapshot and never block on a rebuild.
type Insights struct {
	builder *index.Builder
	engine  *search.Engine

	current   atomic.Pointer[domain.IndexState]
	rebuildMu sync.Mutex
	ruminator atomic.Pointer[rumination.Ruminator]

	notifier domain.Notifier
	logger   *zap.Logger
}

// Option configures Insights.
type Option func(*Insights)

// WithNotifier sets where index notices go.
func WithNotifier(n domain.Notifier) Option {
	return func(s *Insights) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Insights) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates the facade with no index published.
func New(builder *index.Builder, engine *search.Engine, opts ...Option) *Insights {
	s := &Insights{
		builder:  builder,
		engine:   engine,
		notifier: domain.NopNotifier{},
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Index returns the published snapshot, or nil before the first successful build.
func (s *Insights) Index() *domain.IndexState {
	return s.current.Load()
}

// RebuildIndex builds a new snapshot and publishes it. On failure the previous snapshot stays.
func (s *Insights) RebuildIndex(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	idx, report, err := s.builder.Build(ctx)
	if err != nil {
		s.logger.Error("index rebuild failed, keeping previous index", zap.Error(err))
		s.notifier.Notify(NoticeIndexFailed)
		return fmt.Errorf("rebuild index: %w", err)
	}
	s.current.Store(idx)

	if report.DenseErr != nil {
		s.notifier.Notify(NoticeDenseOff)
	}
	s.logger.Info("index published",
		zap.Int("documents", report.Documents),
		zap.Int("terms", report.Terms),
		zap.Bool("dense", report.Dense),
		zap.Duration("took", report.Took),
	)
	s.notifier.Notify(NoticeIndexReady)
	return nil
}

// Search queries the current snapshot. Before the first build it returns no results.
func (s *Insights) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	return s.engine.Search(ctx, s.current.Load(), query)
}

// SetRuminator attaches the ruminator used by RunRumination.
func (s *Insights) SetRuminator(r *rumination.Ruminator) {
	s.ruminator.Store(r)
}

// Ruminator returns the attached ruminator, if any.
func (s *Insights) Ruminator() *rumination.Ruminator {
	return s.ruminator.Load()
}

// RunRumination runs one scan now.
func (s *Insights) RunRumination(ctx context.Context, force bool) ([]domain.Suggestion, error) {
	r := s.ruminator.Load()
	if r == nil {
		return nil, fmt.Errorf("rumination not configured: %w", domain.ErrInvalidInput)
	}
	return r.Tick(ctx, force)
}

// Stats summarizes the published index. It returns domain.ErrIndexUnavailable before the first build.
func (s *Insights) Stats() (Stats, error) {
	st := Stats{Rumination: rumination.StatusStopped.String()}
	if r := s.ruminator.Load(); r != nil {
		st.Rumination = r.Status().String()
	}
	idx := s.current.Load()
	if idx == nil {
		return st, domain.ErrIndexUnavailable
	}
	st.Documents = len(idx.Documents)
	st.Terms = len(idx.VocabularyIDF)
	st.Dense = idx.HasDense()
	st.BuiltAt = idx.BuiltAt
	return st, nil
}
