// Package index builds immutable TF-IDF index snapshots from a document store.
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"insights/internal/domain"
	"insights/internal/embedding/tfidf"
	"insights/internal/metrics"
	"insights/internal/scoring"
	"insights/internal/tokenizer"
)

// Report summarizes one build.
type Report struct {
	Documents int
	Terms     int
	Dense     bool
	// DenseErr is set when the dense pass failed and the index fell back to sparse only.
	DenseErr error
	Took     time.Duration
}

// Builder produces IndexState snapshots. It holds no per-build state and may be reused.
type Builder struct {
	store    domain.DocumentStore
	embedder domain.Embedder
	idfMode  tfidf.IDFMode
	workers  int
	clock    func() time.Time
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithEmbedder enables the dense pass.
func WithEmbedder(e domain.Embedder) Option {
	return func(b *Builder) { b.embedder = e }
}

// WithIDFMode selects the IDF formula.
func WithIDFMode(m tfidf.IDFMode) Option {
	return func(b *Builder) { b.idfMode = m }
}

// WithWorkers sets how many documents are read and tokenized concurrently.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n < 1 {
			n = 1
		}
		b.workers = n
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.clock = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder creates a builder reading from store.
func NewBuilder(store domain.DocumentStore, opts ...Option) *Builder {
	b := &Builder{
		store:   store,
		idfMode: tfidf.IDFRaw,
		workers: 4,
		clock:   time.Now,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

type loaded struct {
	info    domain.DocumentInfo
	content string
	tokens  []string
	tags    []string
}

// Build reads every document and returns a complete snapshot. Any read failure fails the
// whole build; a dense failure only drops the dense vectors.
func (b *Builder) Build(ctx context.Context) (*domain.IndexState, Report, error) {
	start := time.Now()
	state, report, err := b.build(ctx)
	report.Took = time.Since(start)
	if err != nil {
		b.metrics.ObserveBuild("error", report.Took, 0)
		return nil, report, err
	}
	b.metrics.ObserveBuild("success", report.Took, report.Documents)
	b.logger.Info("index built",
		zap.Int("documents", report.Documents),
		zap.Int("terms", report.Terms),
		zap.Bool("dense", report.Dense),
		zap.Duration("took", report.Took),
	)
	return state, report, nil
}

func (b *Builder) build(ctx context.Context) (*domain.IndexState, Report, error) {
	infos, err := b.store.List(ctx)
	if err != nil {
		return nil, Report{}, fmt.Errorf("list documents: %w", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	docs, err := b.load(ctx, infos)
	if err != nil {
		return nil, Report{}, err
	}

	counts := make([]map[string]int, len(docs))
	for i, d := range docs {
		counts[i] = tfidf.TermCounts(d.tokens)
	}
	vz := tfidf.Fit(counts, b.idfMode)

	state := &domain.IndexState{
		Documents:     make(map[string]domain.Document, len(docs)),
		VocabularyIDF: vz.IDF(),
		DocVectors:    make(map[string]domain.SparseVector, len(docs)),
		InvertedIndex: make(map[string][]string),
		BuiltAt:       b.clock(),
	}
	for i, d := range docs {
		p := d.info.Path
		state.Documents[p] = domain.Document{
			Path:      p,
			Title:     Title(d.content, d.info.Name),
			ModTime:   d.info.ModTime,
			WordCount: len(d.tokens),
			Sentiment: Sentiment(d.tokens),
			Tags:      NormalizeTags(d.tags),
		}
		state.DocVectors[p] = vz.Vector(counts[i])
		for term := range counts[i] {
			state.InvertedIndex[term] = append(state.InvertedIndex[term], p)
		}
	}

	report := Report{Documents: len(docs), Terms: len(state.VocabularyIDF)}
	if b.embedder != nil && len(docs) > 0 {
		dense, err := b.densePass(ctx, docs, state.Documents)
		if err != nil {
			report.DenseErr = err
			b.metrics.DenseFallback("index")
			b.logger.Warn("dense pass failed, index is sparse only",
				zap.String("provider", b.embedder.Name()),
				zap.Error(err),
			)
		} else {
			state.DenseVectors = dense
			report.Dense = true
		}
	}
	return state, report, nil
}

// load reads, tokenizes and tags every document on a bounded pool.
// Results are stored by position so the output order matches infos.
func (b *Builder) load(ctx context.Context, infos []domain.DocumentInfo) ([]loaded, error) {
	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	out := make([]loaded, len(infos))
	errs := make([]error, len(infos))
	var wg sync.WaitGroup
	for i, info := range infos {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			out[i], errs[i] = b.loadOne(ctx, info)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return out, nil
}

func (b *Builder) loadOne(ctx context.Context, info domain.DocumentInfo) (loaded, error) {
	if err := ctx.Err(); err != nil {
		return loaded{}, err
	}
	content, err := b.store.Read(ctx, info.Path)
	if err != nil {
		return loaded{}, &domain.DocumentReadError{Path: info.Path, Err: err}
	}
	tags, err := b.store.Tags(ctx, info.Path)
	if err != nil {
		return loaded{}, &domain.DocumentReadError{Path: info.Path, Err: err}
	}
	return loaded{
		info:    info,
		content: content,
		tokens:  tokenizer.Tokenize(content),
		tags:    tags,
	}, nil
}

// densePass embeds each document sequentially. Any failure discards every vector.
func (b *Builder) densePass(ctx context.Context, docs []loaded, meta map[string]domain.Document) (map[string]domain.DenseVector, error) {
	dense := make(map[string]domain.DenseVector, len(docs))
	for _, d := range docs {
		text := meta[d.info.Path].Title + "\n\n" + scoring.ReadHead(d.content, scoring.HeadMaxLines, scoring.HeadMaxChars)
		vecs, err := b.embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", d.info.Path, err)
		}
		if len(vecs) != 1 || len(vecs[0]) == 0 {
			return nil, &domain.ProviderError{
				Provider: b.embedder.Name(),
				Err:      fmt.Errorf("embed %s: got %d vectors", d.info.Path, len(vecs)),
			}
		}
		dense[d.info.Path] = vecs[0]
	}
	return dense, nil
}
