package rumination

import (
	"fmt"
	"strings"
	"time"

	"insights/internal/domain"
)

const (
	// DefaultDigestPath is the vault-relative digest file.
	DefaultDigestPath = "INSIGHTS Digest.md"
	// DigestHeader starts a newly created digest file.
	DigestHeader = "# INSIGHTS Digest\n"

	digestTimeLayout = "2006-01-02 15:04:05"
)

// FormatDigest renders one digest section. The run marker is an HTML comment so it
// stays out of the index when the digest itself is tokenized.
func FormatDigest(at time.Time, runID string, top []domain.Suggestion) string {
	lines := make([]string, 0, 2+2*len(top))
	lines = append(lines, fmt.Sprintf("\n## %s\n", at.Format(digestTimeLayout)))
	if runID != "" {
		lines = append(lines, fmt.Sprintf("<!-- run:%s -->", runID))
	}
	for _, s := range top {
		lines = append(lines, fmt.Sprintf("- %s ⇄ %s (score: %.3f, sim: %.3f, link: %.3f)",
			s.ATitle, s.BTitle, s.Score, s.Similarity, s.LinkAffinity))
		if s.Bridge != "" {
			lines = append(lines, "  - "+s.Bridge)
		}
	}
	return strings.Join(lines, "\n")
}
