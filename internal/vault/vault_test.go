package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/domain"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newVault(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	return s, root
}

func TestNew_RequiresDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	root := t.TempDir()
	writeNote(t, root, "file.md", "x")
	_, err = New(filepath.Join(root, "file.md"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_List(t *testing.T) {
	s, root := newVault(t)
	writeNote(t, root, "b.md", "b")
	writeNote(t, root, "a.md", "a")
	writeNote(t, root, "sub/c.MD", "c")
	writeNote(t, root, "notes.txt", "not markdown")
	writeNote(t, root, ".obsidian/workspace.md", "hidden dir")
	writeNote(t, root, ".hidden.md", "hidden file")

	docs, err := s.List(context.Background())
	require.NoError(t, err)

	var paths, names []string
	for _, d := range docs {
		paths = append(paths, d.Path)
		names = append(names, d.Name)
		assert.False(t, d.ModTime.IsZero())
	}
	assert.Equal(t, []string{"a.md", "b.md", "sub/c.MD"}, paths)
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestStore_Read(t *testing.T) {
	s, root := newVault(t)
	writeNote(t, root, "sub/note.md", "hello")

	got, err := s.Read(context.Background(), "sub/note.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = s.Read(context.Background(), "missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, bad := range []string{"../outside.md", "/etc/passwd", "", "sub/../../x.md"} {
		_, err = s.Read(context.Background(), bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestStore_Tags(t *testing.T) {
	s, root := newVault(t)
	writeNote(t, root, "list.md", "---\ntags: [Research, ideas]\n---\n# Title\nBody with #Garden and #2024 and code `#x`\n")
	writeNote(t, root, "string.md", "---\ntag: alpha, beta\n---\ntext")
	writeNote(t, root, "none.md", "# Heading only\n## Sub\n")

	tags, err := s.Tags(context.Background(), "list.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"Research", "ideas", "#Garden"}, tags)

	tags, err = s.Tags(context.Background(), "string.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, tags)

	tags, err = s.Tags(context.Background(), "none.md")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestExtractTags_IgnoresFencedCodeAndBadFrontmatter(t *testing.T) {
	assert.Empty(t, ExtractTags("```\n#notatag\n```\n"))
	assert.Equal(t, []string{"#real"}, ExtractTags("---\ntags: [unclosed\n---\n#real"))
}

func TestStore_ResolvedLinks(t *testing.T) {
	s, root := newVault(t)
	writeNote(t, root, "a.md", "See [[b]], [[sub/c|alias]], [[b#heading]], [[missing]] and [d](d.md).")
	writeNote(t, root, "b.md", "Back to [[A]] and [web](https://example.com/x.md).")
	writeNote(t, root, "sub/c.md", "Relative [up](../b.md) and [[#local heading]].")
	writeNote(t, root, "d.md", "no links")

	links, err := s.ResolvedLinks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"b.md", "d.md", "sub/c.md"}, links["a.md"])
	assert.Equal(t, []string{"a.md"}, links["b.md"])
	assert.Equal(t, []string{"b.md"}, links["sub/c.md"])
	_, ok := links["d.md"]
	assert.False(t, ok)
}

func TestStore_AppendOrCreate(t *testing.T) {
	s, root := newVault(t)
	ctx := context.Background()

	require.NoError(t, s.AppendOrCreate(ctx, "digests/INSIGHTS Digest.md", "# INSIGHTS Digest\n", "\n## one\n"))
	require.NoError(t, s.AppendOrCreate(ctx, "digests/INSIGHTS Digest.md", "# INSIGHTS Digest\n", "\n## two\n"))

	data, err := os.ReadFile(filepath.Join(root, "digests", "INSIGHTS Digest.md"))
	require.NoError(t, err)
	assert.Equal(t, "# INSIGHTS Digest\n\n## one\n\n## two\n", string(data))

	err = s.AppendOrCreate(ctx, "../escape.md", "", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIsHiddenPath(t *testing.T) {
	assert.True(t, IsHiddenPath(".obsidian/workspace.md"))
	assert.True(t, IsHiddenPath("notes/.trash/x.md"))
	assert.False(t, IsHiddenPath("notes/file.md"))
	assert.False(t, IsHiddenPath("./notes/file.md"))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.Put("b.md", "---\ntags: [x]\n---\nbody #y", now, "Extra")
	m.Put("a.md", "alpha", now)
	m.SetLinks("a.md", "b.md")

	docs, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.md", docs[0].Path)
	assert.Equal(t, "a", docs[0].Name)
	assert.Equal(t, now, docs[1].ModTime)

	tags, err := m.Tags(ctx, "b.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"Extra", "x", "#y"}, tags)

	boom := errors.New("boom")
	m.FailRead("a.md", boom)
	_, err = m.Read(ctx, "a.md")
	assert.ErrorIs(t, err, boom)
	m.FailRead("a.md", nil)
	got, err := m.Read(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)

	links, err := m.ResolvedLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"a.md": {"b.md"}}, links)

	require.NoError(t, m.AppendOrCreate(ctx, "d.md", "H\n", "one"))
	require.NoError(t, m.AppendOrCreate(ctx, "d.md", "H\n", "two"))
	got, err = m.Read(ctx, "d.md")
	require.NoError(t, err)
	assert.Equal(t, "H\nonetwo", got)

	m.Remove("d.md")
	_, err = m.Read(ctx, "d.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
