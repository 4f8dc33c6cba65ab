package vault

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"insights/internal/domain"
)

var (
	frontmatterRe = regexp.MustCompile(`(?s)\A\s*---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)
	fencedCodeRe  = regexp.MustCompile("(?s)```.*?```")
	inlineTagRe   = regexp.MustCompile(`(?:^|[\s(])#([\p{L}\p{N}_/\-]+)`)
	wikiLinkRe    = regexp.MustCompile(`\[\[([^\]\|#]*)(?:#[^\]\|]*)?(?:\|[^\]]*)?\]\]`)
	mdLinkRe      = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
)

// splitFrontmatter returns the YAML block at the top of content and the remaining body.
func splitFrontmatter(content string) (string, string) {
	loc := frontmatterRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", content
	}
	return content[loc[2]:loc[3]], content[loc[1]:]
}

// ExtractTags collects the frontmatter "tags"/"tag" fields (a list or a comma separated
// string) and inline #tags from the body. Inline tags keep their leading '#'.
func ExtractTags(content string) []string {
	fm, body := splitFrontmatter(content)
	var tags []string
	if fm != "" {
		var meta map[string]any
		if err := yaml.Unmarshal([]byte(fm), &meta); err == nil {
			for _, key := range []string{"tags", "tag"} {
				tags = append(tags, tagValues(meta[key])...)
			}
		}
	}
	body = fencedCodeRe.ReplaceAllString(body, " ")
	for _, m := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		if isNumeric(m[1]) {
			continue
		}
		tags = append(tags, "#"+m[1])
	}
	return tags
}

func tagValues(v any) []string {
	switch t := v.(type) {
	case string:
		return strings.FieldsFunc(t, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ExtractLinks returns raw link targets: wiki links without alias or heading, and
// relative markdown links to .md files.
func ExtractLinks(content string) []string {
	content = fencedCodeRe.ReplaceAllString(content, " ")
	var out []string
	for _, m := range wikiLinkRe.FindAllStringSubmatch(content, -1) {
		if t := strings.TrimSpace(m[1]); t != "" {
			out = append(out, t)
		}
	}
	for _, m := range mdLinkRe.FindAllStringSubmatch(content, -1) {
		t := m[1]
		if strings.Contains(t, "://") || strings.HasPrefix(t, "#") || strings.HasPrefix(t, "mailto:") {
			continue
		}
		if i := strings.IndexByte(t, '#'); i >= 0 {
			t = t[:i]
		}
		if u, err := url.PathUnescape(t); err == nil {
			t = u
		}
		if IsMarkdown(t) {
			out = append(out, t)
		}
	}
	return out
}

// resolver maps link targets onto known document paths.
type resolver struct {
	byPath map[string]string // lower-cased path -> path
	byBase map[string]string // lower-cased base name -> first path in sorted order
}

func newResolver(docs []domain.DocumentInfo) *resolver {
	r := &resolver{
		byPath: make(map[string]string, len(docs)),
		byBase: make(map[string]string, len(docs)),
	}
	for _, d := range docs {
		r.byPath[strings.ToLower(d.Path)] = d.Path
		base := strings.ToLower(baseName(d.Path))
		if _, ok := r.byBase[base]; !ok {
			r.byBase[base] = d.Path
		}
	}
	return r
}

func (r *resolver) resolve(from, target string) (string, bool) {
	t := strings.TrimPrefix(strings.TrimSpace(target), "/")
	if !IsMarkdown(t) {
		t += ".md"
	}
	candidates := []string{
		path.Clean(path.Join(path.Dir(from), t)),
		path.Clean(t),
	}
	for _, c := range candidates {
		if p, ok := r.byPath[strings.ToLower(c)]; ok {
			return p, true
		}
	}
	p, ok := r.byBase[strings.ToLower(baseName(t))]
	return p, ok
}

func (r *resolver) resolveAll(from string, targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	var out []string
	for _, t := range targets {
		p, ok := r.resolve(from, t)
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
