// Package scoring holds the pure vector math and ranking signals shared by search and rumination.
package scoring

import (
	"math"
	"regexp"
	"strings"
	"time"

	"insights/internal/domain"
)

const (
	// ExcerptMaxChars bounds excerpts in runes.
	ExcerptMaxChars = 240
	// HeadMaxLines and HeadMaxChars bound the representative text sent for dense embedding.
	HeadMaxLines = 40
	HeadMaxChars = 1200
)

var blankLinesRe = regexp.MustCompile(`\n+`)

// CosineSparse returns the cosine similarity of two sparse vectors, 0 if either norm is 0.
func CosineSparse(a, b domain.SparseVector) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot float64
	for term, w := range small {
		if o, ok := large[term]; ok {
			dot += w * o
		}
	}
	na, nb := sparseNorm(a), sparseNorm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

func sparseNorm(v domain.SparseVector) float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// CosineDense returns the cosine similarity of two dense vectors aligned to the shorter length.
func CosineDense(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RecencyWeight decays by half every halfLifeDays. Future mtimes count as age 0.
func RecencyWeight(mtime time.Time, halfLifeDays float64, now time.Time) float64 {
	if halfLifeDays <= 0 {
		return 1
	}
	ageDays := now.Sub(mtime).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Pow(0.5, ageDays/halfLifeDays)
}

// SentimentBoost maps a sentiment in [-1, 1] to a multiplier in [0.9, 1.1].
func SentimentBoost(sentiment float64) float64 {
	return 1 + 0.1*sentiment
}

// BuildExcerpt returns the first line mentioning any query token, else the first line.
func BuildExcerpt(content string, queryTokens []string) string {
	if content == "" {
		return ""
	}
	lines := blankLinesRe.Split(content, -1)
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, tok := range queryTokens {
			if tok != "" && strings.Contains(lower, tok) {
				return truncate(strings.TrimSpace(line), ExcerptMaxChars)
			}
		}
	}
	return truncate(strings.TrimSpace(lines[0]), ExcerptMaxChars)
}

// ReadHead returns at most maxLines lines of content, cut to maxChars.
func ReadHead(content string, maxLines, maxChars int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return truncate(strings.Join(lines, "\n"), maxChars)
}

// Jaccard returns |a ∩ b| / |a ∪ b|, 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
