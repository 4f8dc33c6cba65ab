package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexUnavailable signals that no index has been built yet.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrProvider signals an embedding service failure.
	ErrProvider = errors.New("embedding provider error")
	// ErrDocumentRead signals that a document could not be read.
	ErrDocumentRead = errors.New("document read failed")
	// ErrInvalidInput signals malformed input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("not found")
)

// ProviderError describes a failed embedding request.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", ErrProvider, e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrProvider, e.Provider, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *ProviderError) Unwrap() []error { return []error{ErrProvider, e.Err} }

// DocumentReadError describes a document that could not be read.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDocumentRead, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *DocumentReadError) Unwrap() []error { return []error{ErrDocumentRead, e.Err} }
