package vault

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"insights/internal/domain"
)

type memDoc struct {
	content string
	modTime time.Time
	tags    []string
}

// Memory is an in-memory vault. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	docs     map[string]memDoc
	links    map[string][]string
	readErrs map[string]error
}

// NewMemory returns an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]memDoc),
		links:    make(map[string][]string),
		readErrs: make(map[string]error),
	}
}

// Put stores a document. Extra tags are reported alongside tags found in the content.
func (m *Memory) Put(path, content string, modTime time.Time, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = memDoc{content: content, modTime: modTime, tags: tags}
}

// Remove deletes a document and its outgoing links.
func (m *Memory) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	delete(m.links, path)
}

// SetLinks replaces the outgoing links of path.
func (m *Memory) SetLinks(path string, targets ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[path] = append([]string(nil), targets...)
}

// FailRead makes every Read of path return err until cleared with a nil err.
func (m *Memory) FailRead(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.readErrs, path)
		return
	}
	m.readErrs[path] = err
}

// List returns the stored documents ordered by path.
func (m *Memory) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.DocumentInfo, 0, len(m.docs))
	for p, d := range m.docs {
		out = append(out, domain.DocumentInfo{Path: p, Name: baseName(p), ModTime: d.modTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns the content of path.
func (m *Memory) Read(ctx context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.readErrs[path]; ok {
		return "", err
	}
	d, ok := m.docs[path]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, domain.ErrNotFound)
	}
	return d.content, nil
}

// Tags returns the stored tags plus those found in the content.
func (m *Memory) Tags(ctx context.Context, path string) ([]string, error) {
	m.mu.RLock()
	d, ok := m.docs[path]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tags %s: %w", path, domain.ErrNotFound)
	}
	return append(append([]string(nil), d.tags...), ExtractTags(d.content)...), nil
}

// ResolvedLinks returns a copy of the configured link graph.
func (m *Memory) ResolvedLinks(ctx context.Context) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]string, len(m.links))
	for k, v := range m.links {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

// AppendOrCreate appends text to path, creating it with header first when absent.
func (m *Memory) AppendOrCreate(ctx context.Context, path, header, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[path]
	if !ok {
		m.docs[path] = memDoc{content: header + text, modTime: time.Now()}
		return nil
	}
	d.content += text
	d.modTime = time.Now()
	m.docs[path] = d
	return nil
}
