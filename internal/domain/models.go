package domain

import (
	"sort"
	"strings"
	"time"
)

// Document is the indexed metadata of one corpus document.
type Document struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	ModTime   time.Time `json:"mtime"`
	WordCount int       `json:"word_count"`
	Sentiment float64   `json:"sentiment"` // [-1, 1]
	Tags      []string  `json:"tags"`
}

// SparseVector maps a term to its weight.
type SparseVector map[string]float64

// DenseVector is an embedding produced by an external model.
type DenseVector []float64

// IndexState is an immutable snapshot of one full index build.
// Every key of DocVectors and DenseVectors is a key of Documents.
type IndexState struct {
	Documents     map[string]Document
	VocabularyIDF map[string]float64
	DocVectors    map[string]SparseVector
	InvertedIndex map[string][]string
	// DenseVectors is nil unless the dense pass succeeded for the whole corpus.
	DenseVectors map[string]DenseVector
	BuiltAt      time.Time
}

// Paths returns the document paths in sorted order.
func (s *IndexState) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, 0, len(s.Documents))
	for p := range s.Documents {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// HasDense reports whether the snapshot carries dense vectors.
func (s *IndexState) HasDense() bool {
	return s != nil && s.DenseVectors != nil
}

// SearchResult is one ranked search hit.
type SearchResult struct {
	Path           string  `json:"path"`
	Title          string  `json:"title"`
	Excerpt        string  `json:"excerpt"`
	Similarity     float64 `json:"similarity"`
	RecencyBoost   float64 `json:"recency_boost"`
	SentimentBoost float64 `json:"sentiment_boost"`
	Score          float64 `json:"score"`
}

// Suggestion is a high-affinity document pair found by a rumination scan.
type Suggestion struct {
	APath        string   `json:"a_path"`
	BPath        string   `json:"b_path"`
	ATitle       string   `json:"a_title"`
	BTitle       string   `json:"b_title"`
	Score        float64  `json:"score"`
	Similarity   float64  `json:"similarity"`
	LinkAffinity float64  `json:"link_affinity"`
	NoveltyBoost float64  `json:"novelty_boost"`
	SharedTerms  []string `json:"shared_terms"`
	Bridge       string   `json:"bridge,omitempty"`
}

// PairRecord tracks how often a document pair has been suggested.
type PairRecord struct {
	Count     int       `yaml:"count" json:"count"`
	LastShown time.Time `yaml:"last_shown" json:"last_shown"`
}

// NoveltyState holds the per-pair repeat counters that persist across scans.
type NoveltyState struct {
	SeenPairs map[string]PairRecord `yaml:"seen_pairs" json:"seen_pairs"`
}

const pairSep = "\x00"

// PairKey identifies an unordered pair of paths. The separator cannot occur in a path.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + pairSep + b
}

// SplitPairKey returns the two paths of key in sorted order.
func SplitPairKey(key string) (a, b string, ok bool) {
	return strings.Cut(key, pairSep)
}

// NewNoveltyState returns an empty state.
func NewNoveltyState() *NoveltyState {
	return &NoveltyState{SeenPairs: make(map[string]PairRecord)}
}

// Repeats returns how often the pair stored under key has been shown.
func (s *NoveltyState) Repeats(key string) int {
	if s == nil || s.SeenPairs == nil {
		return 0
	}
	return s.SeenPairs[key].Count
}

// Record bumps the repeat count of key and stamps it with at.
func (s *NoveltyState) Record(key string, at time.Time) {
	if s.SeenPairs == nil {
		s.SeenPairs = make(map[string]PairRecord)
	}
	rec := s.SeenPairs[key]
	rec.Count++
	rec.LastShown = at
	s.SeenPairs[key] = rec
}
