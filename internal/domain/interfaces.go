package domain

import (
	"context"
	"time"
)

// DocumentInfo is what a document store reports about a document before it is read.
type DocumentInfo struct {
	Path    string
	Name    string // fallback title, usually the file name without extension
	ModTime time.Time
}

// DocumentStore enumerates and reads the corpus.
type DocumentStore interface {
	List(ctx context.Context) ([]DocumentInfo, error)
	Read(ctx context.Context, path string) (string, error)
	// Tags returns structured tag annotations and frontmatter tags, as written.
	Tags(ctx context.Context, path string) ([]string, error)
}

// LinkGraph resolves the outgoing links of every document in the corpus.
type LinkGraph interface {
	ResolvedLinks(ctx context.Context) (map[string][]string, error)
}

// DigestWriter appends to a document, creating it with header when it does not exist.
type DigestWriter interface {
	AppendOrCreate(ctx context.Context, path, header, text string) error
}

// Embedder converts texts into dense vectors, one per input, in input order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Notifier surfaces informational messages to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) { f(msg) }

// NopNotifier drops every notice.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(string) {}
