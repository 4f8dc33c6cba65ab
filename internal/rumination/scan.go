package rumination

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"insights/internal/domain"
	"insights/internal/scoring"
)

const (
	sharedTermsK    = 5
	bridgeTermLimit = 3
)

// scan scores every unordered pair of indexed documents and returns the best MaxSuggestions.
// Cancellation is checked once per outer row.
func scan(ctx context.Context, idx *domain.IndexState, state *domain.NoveltyState, cfg Config, neighbors map[string]map[string]struct{}) ([]domain.Suggestion, error) {
	paths := idx.Paths()
	focus := ParseFocusTags(cfg.FocusTags)

	var out []domain.Suggestion
	for i := 0; i < len(paths); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := paths[i]
		va := idx.DocVectors[a]
		for j := i + 1; j < len(paths); j++ {
			b := paths[j]
			vb := idx.DocVectors[b]

			sim := scoring.CosineSparse(va, vb)
			if sim < cfg.MinSimilarity {
				continue
			}
			da, db := idx.Documents[a], idx.Documents[b]
			if len(focus) > 0 && !hasAnyTag(da, focus) && !hasAnyTag(db, focus) {
				continue
			}
			repeats := state.Repeats(PairKey(a, b))
			if repeats >= cfg.MaxRepeatsPerPair {
				continue
			}

			link := 0.0
			if cfg.UseLinkGraph {
				link = scoring.Jaccard(neighbors[a], neighbors[b])
			}
			novelty := cfg.NoveltyWeight / float64(1+repeats)
			shared := TopSharedTerms(va, vb, sharedTermsK)

			s := domain.Suggestion{
				APath:        a,
				BPath:        b,
				ATitle:       da.Title,
				BTitle:       db.Title,
				Score:        sim * (1 + link) * (1 + novelty),
				Similarity:   sim,
				LinkAffinity: link,
				NoveltyBoost: novelty,
				SharedTerms:  shared,
			}
			if cfg.BridgeSummary && len(shared) > 0 {
				s.Bridge = BridgeSentence(da.Title, db.Title, shared)
			}
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].APath != out[j].APath {
			return out[i].APath < out[j].APath
		}
		return out[i].BPath < out[j].BPath
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	if out == nil {
		out = []domain.Suggestion{}
	}
	return out, nil
}

// PairKey identifies an unordered pair of paths in the novelty state.
func PairKey(a, b string) string { return domain.PairKey(a, b) }

// ParseFocusTags splits a comma-separated tag list into a lower-cased set.
func ParseFocusTags(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Split(s, ",") {
		t = strings.ToLower(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}

func hasAnyTag(d domain.Document, focus map[string]struct{}) bool {
	for _, t := range d.Tags {
		if _, ok := focus[t]; ok {
			return true
		}
	}
	return false
}

// TopSharedTerms returns up to k terms present in both vectors, ranked by combined weight.
func TopSharedTerms(a, b domain.SparseVector, k int) []string {
	type termWeight struct {
		term string
		w    float64
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var shared []termWeight
	for t, wa := range a {
		if wb, ok := b[t]; ok {
			shared = append(shared, termWeight{t, wa + wb})
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		if shared[i].w != shared[j].w {
			return shared[i].w > shared[j].w
		}
		return shared[i].term < shared[j].term
	})
	if len(shared) > k {
		shared = shared[:k]
	}
	out := make([]string, len(shared))
	for i, s := range shared {
		out[i] = s.term
	}
	return out
}

// BridgeSentence names what two documents have in common using up to three shared terms.
func BridgeSentence(aTitle, bTitle string, shared []string) string {
	if len(shared) > bridgeTermLimit {
		shared = shared[:bridgeTermLimit]
	}
	return fmt.Sprintf("%s and %s connect via %s.", aTitle, bTitle, strings.Join(shared, ", "))
}
