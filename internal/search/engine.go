// Package search ranks indexed documents against a free-text query.
package search

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"insights/internal/domain"
	"insights/internal/embedding/tfidf"
	"insights/internal/metrics"
	"insights/internal/scoring"
	"insights/internal/tokenizer"
)

// DenseFallbackNotice is sent to the notifier when the dense path fails for a query.
const DenseFallbackNotice = "dense search failed, using TF-IDF"

var errEmptyQueryVector = errors.New("provider returned no query vector")

// Engine answers queries against an IndexState. It keeps no per-query state.
type Engine struct {
	store      domain.DocumentStore
	embedder   domain.Embedder
	maxResults int
	halfLife   float64
	clock      func() time.Time
	notifier   domain.Notifier
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder enables the dense path for indexes that carry dense vectors.
func WithEmbedder(e domain.Embedder) Option {
	return func(s *Engine) { s.embedder = e }
}

// WithMaxResults caps the result page.
func WithMaxResults(n int) Option {
	return func(s *Engine) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithHalfLife sets the recency half-life in days. Zero or less disables decay.
func WithHalfLife(days float64) Option {
	return func(s *Engine) { s.halfLife = days }
}

// WithClock overrides the time used for recency.
func WithClock(now func() time.Time) Option {
	return func(s *Engine) { s.clock = now }
}

// WithNotifier sets where fallback notices go.
func WithNotifier(n domain.Notifier) Option {
	return func(s *Engine) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Engine) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Engine) { s.metrics = m }
}

// NewEngine creates a search engine that reads excerpts from store.
func NewEngine(store domain.DocumentStore, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		maxResults: 20,
		halfLife:   30,
		clock:      time.Now,
		notifier:   domain.NopNotifier{},
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type candidate struct {
	path string
	sim  float64
}

// Search returns up to maxResults hits ranked by score. A nil index or a query without
// content terms yields an empty result and no error.
func (e *Engine) Search(ctx context.Context, idx *domain.IndexState, query string) ([]domain.SearchResult, error) {
	start := time.Now()
	tokens := tokenizer.Tokenize(query)
	if idx == nil || len(tokens) == 0 {
		e.metrics.ObserveSearch("empty", time.Since(start))
		return []domain.SearchResult{}, nil
	}

	path := "lexical"
	var cands []candidate
	if idx.HasDense() && e.embedder != nil {
		dense, err := e.denseCandidates(ctx, idx, query)
		switch {
		case err != nil:
			e.metrics.DenseFallback("search")
			e.logger.Warn("dense search failed, falling back to TF-IDF",
				zap.String("provider", e.embedder.Name()),
				zap.Error(err),
			)
			e.notifier.Notify(DenseFallbackNotice)
		case len(dense) > 0:
			cands = dense
			path = "dense"
		}
	}
	if len(cands) == 0 {
		cands = lexicalCandidates(idx, tokens)
	}

	now := e.clock()
	results := make([]domain.SearchResult, 0, len(cands))
	for _, c := range cands {
		doc := idx.Documents[c.path]
		rec := scoring.RecencyWeight(doc.ModTime, e.halfLife, now)
		sent := scoring.SentimentBoost(doc.Sentiment)
		results = append(results, domain.SearchResult{
			Path:           c.path,
			Title:          doc.Title,
			Excerpt:        doc.Title,
			Similarity:     c.sim,
			RecencyBoost:   rec,
			SentimentBoost: sent,
			Score:          c.sim * rec * sent,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})
	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}

	for i := range results {
		content, err := e.store.Read(ctx, results[i].Path)
		if err != nil {
			e.logger.Debug("excerpt unavailable", zap.String("path", results[i].Path), zap.Error(err))
			continue
		}
		results[i].Excerpt = scoring.BuildExcerpt(content, tokens)
	}

	e.metrics.ObserveSearch(path, time.Since(start))
	return results, nil
}

// denseCandidates embeds the query and scores every document that has a dense vector.
func (e *Engine) denseCandidates(ctx context.Context, idx *domain.IndexState, query string) ([]candidate, error) {
	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, &domain.ProviderError{Provider: e.embedder.Name(), Err: errEmptyQueryVector}
	}
	q := vecs[0]
	out := make([]candidate, 0, len(idx.DenseVectors))
	for _, p := range idx.Paths() {
		d, ok := idx.DenseVectors[p]
		if !ok {
			continue
		}
		out = append(out, candidate{path: p, sim: math.Max(0, scoring.CosineDense(q, d))})
	}
	return out, nil
}

// lexicalCandidates scores every document by sparse cosine and keeps positive matches.
func lexicalCandidates(idx *domain.IndexState, tokens []string) []candidate {
	qvec := tfidf.FromIDF(idx.VocabularyIDF).Vector(tfidf.TermCounts(tokens))
	var out []candidate
	for p, dvec := range idx.DocVectors {
		sim := scoring.CosineSparse(qvec, dvec)
		if sim <= 0 {
			continue
		}
		out = append(out, candidate{path: p, sim: sim})
	}
	return out
}
