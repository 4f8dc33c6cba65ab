// Package vault reads a directory of markdown notes and exposes it as a document store,
// link graph and digest writer.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"insights/internal/domain"
)

// Store is a filesystem-backed vault rooted at a directory. Paths are slash-separated
// and relative to the root.
type Store struct {
	root   string
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens the vault at root. The directory must exist.
func New(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault %s is not a directory: %w", abs, domain.ErrInvalidInput)
	}
	s := &Store{root: abs, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Root returns the absolute vault directory.
func (s *Store) Root() string { return s.root }

// List enumerates markdown documents, skipping hidden files and directories.
func (s *Store) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	var docs []domain.DocumentInfo
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p == s.root {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkdown(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		docs = append(docs, domain.DocumentInfo{
			Path:    rel,
			Name:    baseName(rel),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list vault: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Read returns the full text of a document.
func (s *Store) Read(ctx context.Context, p string) (string, error) {
	full, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", p, domain.ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// Tags returns frontmatter and inline tags of a document, un-normalized.
func (s *Store) Tags(ctx context.Context, p string) ([]string, error) {
	content, err := s.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	return ExtractTags(content), nil
}

// ResolvedLinks maps each document to the existing documents it links to.
func (s *Store) ResolvedLinks(ctx context.Context) (map[string][]string, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	r := newResolver(docs)
	out := make(map[string][]string, len(docs))
	for _, d := range docs {
		content, err := s.Read(ctx, d.Path)
		if err != nil {
			s.logger.Warn("skipping links of unreadable document", zap.String("path", d.Path), zap.Error(err))
			continue
		}
		if targets := r.resolveAll(d.Path, ExtractLinks(content)); len(targets) > 0 {
			out[d.Path] = targets
		}
	}
	return out, nil
}

// AppendOrCreate appends text to the document at p, creating it with header first when absent.
func (s *Store) AppendOrCreate(ctx context.Context, p, header, text string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
		if err := os.WriteFile(full, []byte(header+text), 0o644); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
		return nil
	}
	f, err := os.OpenFile(full, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append %s: %w", p, err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", p, err)
	}
	return f.Close()
}

// resolve maps a vault-relative path to an absolute one inside the root.
func (s *Store) resolve(p string) (string, error) {
	if p == "" || filepath.IsAbs(p) || path.IsAbs(p) {
		return "", fmt.Errorf("path %q: %w", p, domain.ErrInvalidInput)
	}
	full := filepath.Join(s.root, filepath.FromSlash(p))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes vault: %w", p, domain.ErrInvalidInput)
	}
	return full, nil
}

// IsMarkdown reports whether p names a markdown file.
func IsMarkdown(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".md")
}

// IsHiddenPath reports whether any element of the slash or OS path starts with a dot.
func IsHiddenPath(p string) bool {
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		if isHidden(part) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func baseName(p string) string {
	b := path.Base(p)
	return strings.TrimSuffix(b, path.Ext(b))
}
