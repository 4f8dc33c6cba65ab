package index

import (
	"regexp"
	"sort"
	"strings"
)

var titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

var sentimentLexicon = map[string]int{
	"good": 1, "great": 1, "excellent": 1, "happy": 1, "love": 1, "positive": 1, "success": 1, "win": 1,
	"bad": -1, "poor": -1, "terrible": -1, "sad": -1, "hate": -1, "negative": -1, "fail": -1, "loss": -1,
}

// Title returns the first level-1 heading of content, else fallback.
func Title(content, fallback string) string {
	m := titleRe.FindStringSubmatch(content)
	if m == nil {
		return fallback
	}
	if t := strings.TrimSpace(m[1]); t != "" {
		return t
	}
	return fallback
}

// Sentiment scores tokens against a small lexicon: sum / 5 clamped to [-1, 1].
func Sentiment(tokens []string) float64 {
	sum := 0
	for _, t := range tokens {
		sum += sentimentLexicon[t]
	}
	s := float64(sum) / 5
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}

// NormalizeTags lower-cases tags, strips leading '#', and returns them deduplicated and sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
