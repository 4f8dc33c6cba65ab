// Package rumination periodically scans the index for high-affinity document pairs
// the user has not been shown too often.
package rumination

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"insights/internal/domain"
	"insights/internal/metrics"
)

// MaxSuggestions is how many pairs one scan returns and records.
const MaxSuggestions = 10

// Status is the scheduler state.
type Status int

const (
	StatusStopped Status = iota
	StatusScheduled
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Config holds the scan and schedule settings.
type Config struct {
	Enabled           bool
	Interval          time.Duration
	MinSimilarity     float64
	UseLinkGraph      bool
	WriteDigest       bool
	DigestPath        string
	NoveltyWeight     float64
	FocusTags         string
	AllowedStartHour  int
	AllowedEndHour    int
	MaxRepeatsPerPair int
	BridgeSummary     bool
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Interval:          30 * time.Minute,
		MinSimilarity:     0.25,
		UseLinkGraph:      true,
		DigestPath:        DefaultDigestPath,
		NoveltyWeight:     0.4,
		AllowedStartHour:  8,
		AllowedEndHour:    22,
		MaxRepeatsPerPair: 3,
		BridgeSummary:     true,
	}
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.DigestPath == "" {
		c.DigestPath = DefaultDigestPath
	}
	return c
}

// IndexSource yields the currently published index, or nil before the first build.
type IndexSource interface {
	Index() *domain.IndexState
}

// IndexSourceFunc adapts a function to IndexSource.
type IndexSourceFunc func() *domain.IndexState

// Index calls f.
func (f IndexSourceFunc) Index() *domain.IndexState { return f() }

// PersistFunc saves the novelty state after it was updated.
type PersistFunc func(ctx context.Context, state *domain.NoveltyState) error

// Ruminator owns the novelty state and runs scans on a timer or on demand.
// Scans never overlap: timer firings are skipped while a scan runs, explicit Tick calls wait.
type Ruminator struct {
	src     IndexSource
	state   *domain.NoveltyState
	persist PersistFunc

	links    domain.LinkGraph
	digest   domain.DigestWriter
	clock    func() time.Time
	notifier domain.Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	cfg     Config
	running bool
	stopCh  chan struct{}
	ctx     context.Context
	wg      sync.WaitGroup

	scanMu   sync.Mutex
	scanning atomic.Bool
}

// Option configures a Ruminator.
type Option func(*Ruminator)

// WithLinkGraph sets the source of outgoing links used for link affinity.
func WithLinkGraph(g domain.LinkGraph) Option {
	return func(r *Ruminator) { r.links = g }
}

// WithDigestWriter sets where digest sections are appended.
func WithDigestWriter(w domain.DigestWriter) Option {
	return func(r *Ruminator) { r.digest = w }
}

// WithClock overrides the time source for the hours gate and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Ruminator) { r.clock = now }
}

// WithNotifier sets where user-facing notices go.
func WithNotifier(n domain.Notifier) Option {
	return func(r *Ruminator) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Ruminator) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Ruminator) { r.metrics = m }
}

// New creates a stopped Ruminator. state is mutated in place by scans; a nil state starts empty.
func New(cfg Config, src IndexSource, state *domain.NoveltyState, persist PersistFunc, opts ...Option) *Ruminator {
	if state == nil {
		state = domain.NewNoveltyState()
	}
	r := &Ruminator{
		src:      src,
		state:    state,
		persist:  persist,
		cfg:      cfg.normalized(),
		clock:    time.Now,
		notifier: domain.NopNotifier{},
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Config returns the current settings.
func (r *Ruminator) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Status reports whether a scan is running, the timer is armed, or neither.
func (r *Ruminator) Status() Status {
	if r.scanning.Load() {
		return StatusRunning
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return StatusScheduled
	}
	return StatusStopped
}

// Start arms the repeating timer. It is a no-op when disabled or already started.
// The timer stops when ctx is done or Stop is called.
func (r *Ruminator) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || !r.cfg.Enabled {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.ctx = ctx
	r.wg.Add(1)
	go r.loop(ctx, r.stopCh, r.cfg.Interval)
	r.logger.Info("rumination scheduled", zap.Duration("interval", r.cfg.Interval))
}

// Stop disarms the timer and waits for an in-flight timer scan to finish.
func (r *Ruminator) Stop() {
	r.mu.Lock()
	if r.running {
		r.running = false
		close(r.stopCh)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// UpdateConfig replaces the settings and re-arms the timer if it was armed.
func (r *Ruminator) UpdateConfig(cfg Config) {
	r.mu.Lock()
	wasRunning := r.running
	ctx := r.ctx
	r.mu.Unlock()

	r.Stop()
	r.mu.Lock()
	r.cfg = cfg.normalized()
	r.mu.Unlock()
	if wasRunning && ctx != nil {
		r.Start(ctx)
	}
}

func (r *Ruminator) loop(ctx context.Context, stopCh chan struct{}, interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.stopCh == stopCh && r.running {
				r.running = false
				close(stopCh)
			}
			r.mu.Unlock()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			r.fire(ctx)
		}
	}
}

// fire runs a timer scan unless one is already in flight.
func (r *Ruminator) fire(ctx context.Context) {
	if !r.scanMu.TryLock() {
		r.metrics.ObserveRumination("skipped", 0)
		r.logger.Debug("rumination tick skipped, scan in progress")
		return
	}
	defer r.scanMu.Unlock()
	if _, err := r.tick(ctx, false); err != nil {
		r.logger.Warn("rumination tick failed", zap.Error(err))
	}
}

// Tick runs one scan now, waiting for any running scan to finish first.
// Unless force is set, the scan only runs inside the allowed hours.
// The only error is context cancellation.
func (r *Ruminator) Tick(ctx context.Context, force bool) ([]domain.Suggestion, error) {
	r.scanMu.Lock()
	defer r.scanMu.Unlock()
	return r.tick(ctx, force)
}

func (r *Ruminator) tick(ctx context.Context, force bool) ([]domain.Suggestion, error) {
	cfg := r.Config()
	now := r.clock()
	if !force && !WithinAllowedHours(cfg.AllowedStartHour, cfg.AllowedEndHour, now.Hour()) {
		r.metrics.ObserveRumination("outside_hours", 0)
		return []domain.Suggestion{}, nil
	}
	idx := r.src.Index()
	if idx == nil {
		r.metrics.ObserveRumination("no_index", 0)
		return []domain.Suggestion{}, nil
	}

	r.scanning.Store(true)
	defer r.scanning.Store(false)

	runID := uuid.NewString()
	log := r.logger.With(zap.String("run_id", runID))

	var neighbors map[string]map[string]struct{}
	if cfg.UseLinkGraph && r.links != nil {
		neighbors = r.neighborSets(ctx, log)
	}

	top, err := scan(ctx, idx, r.state, cfg, neighbors)
	if err != nil {
		r.metrics.ObserveRumination("canceled", 0)
		return nil, err
	}
	for _, s := range top {
		r.state.Record(PairKey(s.APath, s.BPath), now)
	}

	if len(top) > 0 && r.persist != nil {
		if err := r.persist(ctx, r.state); err != nil {
			log.Error("failed to persist rumination state", zap.Error(err))
			r.notifier.Notify("rumination state could not be saved")
		}
	}
	if cfg.WriteDigest && len(top) > 0 && r.digest != nil {
		text := FormatDigest(now, runID, top)
		if err := r.digest.AppendOrCreate(ctx, cfg.DigestPath, DigestHeader, text); err != nil {
			log.Error("failed to write digest", zap.String("path", cfg.DigestPath), zap.Error(err))
			r.notifier.Notify("INSIGHTS digest could not be written")
		} else {
			r.notifier.Notify("INSIGHTS digest updated")
		}
	}

	r.metrics.ObserveRumination("completed", len(top))
	log.Info("rumination scan finished",
		zap.Int("documents", len(idx.Documents)),
		zap.Int("suggestions", len(top)),
		zap.Bool("forced", force),
	)
	return top, nil
}

// neighborSets turns the link graph into per-document sets. Failures yield no links.
func (r *Ruminator) neighborSets(ctx context.Context, log *zap.Logger) map[string]map[string]struct{} {
	resolved, err := r.links.ResolvedLinks(ctx)
	if err != nil {
		log.Warn("link graph unavailable, link affinity disabled for this scan", zap.Error(err))
		return nil
	}
	out := make(map[string]map[string]struct{}, len(resolved))
	for from, targets := range resolved {
		set := make(map[string]struct{}, len(targets))
		for _, t := range targets {
			set[t] = struct{}{}
		}
		out[from] = set
	}
	return out
}

// WithinAllowedHours reports whether hour falls in [start, end). Equal bounds allow every hour;
// start > end wraps past midnight.
func WithinAllowedHours(start, end, hour int) bool {
	if start == end {
		return true
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
