// Package tokenizer turns markdown notes into content-bearing word stems.
package tokenizer

import (
	"regexp"
	"strings"
)

var (
	fencedCodeRe  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`]*`")
	imageRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	frontmatterRe = regexp.MustCompile(`(?s)\A\s*---[ \t]*\n.*?\n---[ \t]*(?:\n|\z)`)
	markerRe      = regexp.MustCompile(`(?m)^[#>\-+*]+\s+`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	tabCRRe       = regexp.MustCompile(`[\t\r]+`)
	splitRe       = regexp.MustCompile(`[^a-z0-9]+`)
)

var stopWords = func() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "if", "in", "into", "is", "it",
		"no", "not", "of", "on", "or", "such", "that", "the", "their", "then", "there", "these", "they",
		"this", "to", "was", "will", "with", "from", "we", "you", "your", "i", "our", "ours", "yours",
		"me", "my", "mine", "he", "she", "his", "her", "hers", "them", "those", "were", "been", "being",
		"about", "over", "under", "again", "further", "do", "does", "did", "doing", "so", "than", "too",
		"very", "can", "could", "should", "would", "may", "might",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopWord reports whether token is in the stop-word set.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// StripMarkdown removes markdown syntax that carries no content words.
// Links keep their display text.
func StripMarkdown(text string) string {
	text = fencedCodeRe.ReplaceAllString(text, " ")
	text = inlineCodeRe.ReplaceAllString(text, " ")
	text = imageRe.ReplaceAllString(text, " ")
	text = linkRe.ReplaceAllString(text, "$1")
	text = frontmatterRe.ReplaceAllString(text, " ")
	text = markerRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, " ")
	return tabCRRe.ReplaceAllString(text, " ")
}

// Lemmatize applies light suffix stripping: plurals, gerunds and past tense.
func Lemmatize(token string) string {
	switch {
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "sses"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) > 3:
		return token[:len(token)-1]
	case strings.HasSuffix(token, "ing") && len(token) > 5:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "ed") && len(token) > 4:
		return token[:len(token)-2]
	}
	return token
}

// Tokenize returns the normalized terms of text in order of appearance.
func Tokenize(text string) []string {
	stripped := StripMarkdown(strings.ToLower(text))
	raw := splitRe.Split(stripped, -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if t == "" || IsStopWord(t) {
			continue
		}
		lemma := Lemmatize(t)
		if lemma == "" || IsStopWord(lemma) {
			continue
		}
		out = append(out, lemma)
	}
	return out
}
