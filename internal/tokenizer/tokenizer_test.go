package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLemmatize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"stories", "story"},
		{"ties", "tie"}, // too short for the ies rule
		{"classes", "class"},
		{"notes", "note"},
		{"glass", "glass"},
		{"bus", "bus"},
		{"running", "runn"},
		{"sing", "sing"},
		{"walked", "walk"},
		{"bed", "bed"},
		{"topic", "topic"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Lemmatize(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	t.Run("lower-cases and drops stop words", func(t *testing.T) {
		assert.Equal(t, []string{"good", "project", "research"}, Tokenize("The Good project, and RESEARCH!"))
	})

	t.Run("strips code, images and keeps link text", func(t *testing.T) {
		text := "Intro `inline code` text\n```\nfenced block\n```\n![alt image](img.png) [link words](http://example.com)"
		assert.Equal(t, []string{"intro", "text", "link", "word"}, Tokenize(text))
	})

	t.Run("strips markers, html and frontmatter", func(t *testing.T) {
		text := "---\ntags: [secret]\n---\n# Heading\n> quoted line\n- item <b>bold</b>"
		assert.Equal(t, []string{"head", "quot", "line", "item", "bold"}, Tokenize(text))
	})

	t.Run("drops lemmas collapsing into stop words", func(t *testing.T) {
		assert.Equal(t, []string{"plan"}, Tokenize("wills plans"))
	})

	t.Run("splits on non alphanumerics", func(t *testing.T) {
		assert.Equal(t, []string{"v2", "release", "2024"}, Tokenize("v2-release_2024"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
		assert.Empty(t, Tokenize("the and of"))
	})

	t.Run("deterministic", func(t *testing.T) {
		text := "Researching connected notes about gardening and the ideas behind them."
		assert.Equal(t, Tokenize(text), Tokenize(text))
	})
}

func TestTokenize_NeverEmitsStopWords(t *testing.T) {
	var b strings.Builder
	for w := range stopWords {
		b.WriteString(w)
		b.WriteString(" ")
		b.WriteString(w)
		b.WriteString("s ")
	}
	b.WriteString("doings beings mights coulds")
	for _, tok := range Tokenize(b.String()) {
		assert.False(t, IsStopWord(tok), "stop word %q emitted", tok)
	}
}

func TestStripMarkdown_FrontmatterOnlyWhenLeading(t *testing.T) {
	text := "body line\n---\nnot: frontmatter\n---\n"
	assert.Contains(t, StripMarkdown(text), "not: frontmatter")
}
