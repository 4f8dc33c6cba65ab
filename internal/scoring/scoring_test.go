package scoring

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"insights/internal/domain"
)

func TestCosineSparse(t *testing.T) {
	a := domain.SparseVector{"alpha": 1, "beta": 2, "gamma": 0}
	b := domain.SparseVector{"beta": 3, "delta": 4}

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, CosineSparse(a, b), CosineSparse(b, a), 1e-12)
	})
	t.Run("self similarity is one", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSparse(a, a), 1e-12)
	})
	t.Run("empty vector", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSparse(domain.SparseVector{}, b))
		assert.Equal(t, 0.0, CosineSparse(nil, nil))
	})
	t.Run("zero norm", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSparse(domain.SparseVector{"beta": 0}, b))
	})
	t.Run("known value", func(t *testing.T) {
		// dot = 6, |a| = sqrt(5), |b| = 5
		assert.InDelta(t, 6/(2.2360679775*5), CosineSparse(a, b), 1e-9)
	})
}

func TestCosineDense(t *testing.T) {
	assert.InDelta(t, 1.0, CosineDense([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, 0.0, CosineDense([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, CosineDense([]float64{1, 1}, []float64{-1, -1}), 1e-12)
	// length mismatch aligns to the shorter vector
	assert.InDelta(t, 1.0, CosineDense([]float64{1, 1}, []float64{1, 1, 5}), 1e-12)
	assert.Equal(t, 0.0, CosineDense(nil, []float64{1}))
	assert.Equal(t, 0.0, CosineDense([]float64{0, 0}, []float64{1, 1}))
}

func TestRecencyWeight(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1.0, RecencyWeight(now, 30, now))
	assert.Equal(t, 1.0, RecencyWeight(now.AddDate(-3, 0, 0), 0, now))
	assert.Equal(t, 1.0, RecencyWeight(now.AddDate(-3, 0, 0), -5, now))
	assert.InDelta(t, 0.5, RecencyWeight(now.AddDate(0, 0, -30), 30, now), 1e-9)
	assert.InDelta(t, 0.25, RecencyWeight(now.AddDate(0, 0, -60), 30, now), 1e-9)
	assert.Equal(t, 1.0, RecencyWeight(now.Add(48*time.Hour), 30, now), "future mtime counts as age 0")

	older := RecencyWeight(now.AddDate(0, 0, -10), 30, now)
	oldest := RecencyWeight(now.AddDate(0, 0, -100), 30, now)
	assert.Greater(t, older, oldest)
	assert.Greater(t, oldest, 0.0)
}

func TestSentimentBoost(t *testing.T) {
	assert.InDelta(t, 1.1, SentimentBoost(1), 1e-12)
	assert.InDelta(t, 0.9, SentimentBoost(-1), 1e-12)
	assert.Equal(t, 1.0, SentimentBoost(0))
}

func TestBuildExcerpt(t *testing.T) {
	content := "# Title\n\nFirst paragraph here.\n\n  Research on gardens  \nlast"

	t.Run("first matching line", func(t *testing.T) {
		assert.Equal(t, "Research on gardens", BuildExcerpt(content, []string{"garden"}))
	})
	t.Run("falls back to first line", func(t *testing.T) {
		assert.Equal(t, "# Title", BuildExcerpt(content, []string{"zebra"}))
	})
	t.Run("empty content", func(t *testing.T) {
		assert.Equal(t, "", BuildExcerpt("", []string{"x"}))
	})
	t.Run("truncated to 240 runes", func(t *testing.T) {
		long := strings.Repeat("é", 300)
		got := BuildExcerpt(long, nil)
		assert.Equal(t, 240, len([]rune(got)))
	})
}

func TestReadHead(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("line\n")
	}
	head := ReadHead(b.String(), 40, 1200)
	assert.Equal(t, 40, strings.Count(head, "line"))

	assert.Len(t, []rune(ReadHead(strings.Repeat("x", 2000), 40, 1200)), 1200)
	assert.Equal(t, "", ReadHead("", 40, 1200))
}

func TestJaccard(t *testing.T) {
	set := func(keys ...string) map[string]struct{} {
		m := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			m[k] = struct{}{}
		}
		return m
	}
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 0.0, Jaccard(set("a"), nil))
	assert.Equal(t, 1.0, Jaccard(set("a", "b"), set("b", "a")))
	assert.InDelta(t, 1.0/3.0, Jaccard(set("a", "b"), set("b", "c")), 1e-12)
}
