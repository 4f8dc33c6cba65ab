package rumination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"insights/internal/domain"
)

func TestPairKey(t *testing.T) {
	assert.Equal(t, PairKey("a.md", "b.md"), PairKey("b.md", "a.md"))
	assert.NotEqual(t, PairKey("a.md", "bc.md"), PairKey("ab.md", "c.md"))
}

func TestParseFocusTags(t *testing.T) {
	assert.Equal(t, map[string]struct{}{"research": {}, "ideas": {}}, ParseFocusTags(" Research ,#ideas,,"))
	assert.Empty(t, ParseFocusTags(""))
	assert.Empty(t, ParseFocusTags(" , "))
}

func TestTopSharedTerms(t *testing.T) {
	a := domain.SparseVector{"x": 1, "y": 0.5, "z": 2, "only": 9}
	b := domain.SparseVector{"x": 1, "y": 0.5, "z": 0.1, "w": 3}

	assert.Equal(t, []string{"z", "x", "y"}, TopSharedTerms(a, b, 5))
	assert.Equal(t, []string{"z"}, TopSharedTerms(a, b, 1))
	assert.Empty(t, TopSharedTerms(a, domain.SparseVector{"q": 1}, 5))
}

func TestTopSharedTerms_TiesByTerm(t *testing.T) {
	a := domain.SparseVector{"b": 1, "a": 1}
	assert.Equal(t, []string{"a", "b"}, TopSharedTerms(a, a, 5))
}

func TestBridgeSentence(t *testing.T) {
	assert.Equal(t, "A and B connect via x, y, z.", BridgeSentence("A", "B", []string{"x", "y", "z", "w", "v"}))
	assert.Equal(t, "A and B connect via x.", BridgeSentence("A", "B", []string{"x"}))
}

func TestFormatDigest(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC)
	top := []domain.Suggestion{
		{ATitle: "A", BTitle: "B", Score: 1.5, Similarity: 0.5, LinkAffinity: 0.25, Bridge: "A and B connect via x."},
		{ATitle: "C", BTitle: "D", Score: 0.75, Similarity: 0.5, LinkAffinity: 0},
	}

	want := "\n## 2024-06-01 09:05:07\n" +
		"\n<!-- run:abc -->" +
		"\n- A ⇄ B (score: 1.500, sim: 0.500, link: 0.250)" +
		"\n  - A and B connect via x." +
		"\n- C ⇄ D (score: 0.750, sim: 0.500, link: 0.000)"
	assert.Equal(t, want, FormatDigest(at, "abc", top))
}
