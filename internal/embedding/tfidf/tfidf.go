package tfidf

import (
	"fmt"
	"math"

	"insights/internal/domain"
)

// IDFMode selects the inverse-document-frequency formula.
type IDFMode string

const (
	// IDFRaw is ln(N / (1 + df)). Terms present in every document get a negative weight.
	IDFRaw IDFMode = "raw"
	// IDFSmooth is ln((1 + N) / (1 + df)) + 1, always positive.
	IDFSmooth IDFMode = "smooth"
)

// ParseIDFMode maps a config value to an IDFMode. Empty means raw.
func ParseIDFMode(s string) (IDFMode, error) {
	switch IDFMode(s) {
	case "", IDFRaw:
		return IDFRaw, nil
	case IDFSmooth:
		return IDFSmooth, nil
	}
	return "", fmt.Errorf("unknown idf mode %q: %w", s, domain.ErrInvalidInput)
}

// Vectorizer holds the IDF weights of one corpus.
type Vectorizer struct {
	idf map[string]float64
}

// TermCounts returns the raw count of every token.
func TermCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// Fit computes document frequencies over the per-document counts and derives IDF values.
func Fit(corpus []map[string]int, mode IDFMode) *Vectorizer {
	df := make(map[string]int)
	for _, counts := range corpus {
		for term := range counts {
			df[term]++
		}
	}
	n := float64(len(corpus))
	if n < 1 {
		n = 1
	}
	idf := make(map[string]float64, len(df))
	for term, f := range df {
		if mode == IDFSmooth {
			idf[term] = math.Log((1+n)/(1+float64(f))) + 1.0
			continue
		}
		idf[term] = math.Log(n / (1 + float64(f)))
	}
	return &Vectorizer{idf: idf}
}

// FromIDF wraps an existing vocabulary, typically the one stored in an index snapshot.
func FromIDF(idf map[string]float64) *Vectorizer {
	return &Vectorizer{idf: idf}
}

// IDF returns a copy of the vocabulary weights.
func (v *Vectorizer) IDF() map[string]float64 {
	out := make(map[string]float64, len(v.idf))
	for k, w := range v.idf {
		out[k] = w
	}
	return out
}

// Vector weights counts with augmented term frequency times IDF.
// Terms outside the vocabulary stay in the vector with weight 0.
func (v *Vectorizer) Vector(counts map[string]int) domain.SparseVector {
	maxTf := 1
	for _, c := range counts {
		if c > maxTf {
			maxTf = c
		}
	}
	vec := make(domain.SparseVector, len(counts))
	for term, c := range counts {
		tf := 0.5 + 0.5*(float64(c)/float64(maxTf))
		vec[term] = tf * v.idf[term]
	}
	return vec
}
