package models

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

var (
	// ErrConfiguration marks a missing or invalid setting. Fatal before any pipeline work.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks an absent ingest target.
	ErrNotFound = errors.New("not found")

	// ErrStore marks a non-2xx response or transport failure from the vector store.
	ErrStore = errors.New("vector store error")

	// ErrIndexExists is returned when index creation reports a conflict.
	ErrIndexExists = errors.New("index already exists")

	// ErrDecode marks an unparseable search response.
	ErrDecode = errors.New("decode error")

	// ErrDimensionMismatch is returned when a vector length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrGeneration marks a failed LLM call.
	ErrGeneration = errors.New("answer generation failed")
)

// StoreError carries the HTTP outcome of a failed vector store call.
type StoreError struct {
	Op     string
	Status int
	Body   string
}

func (e *StoreError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

// Is lets errors.Is match ErrStore, and ErrIndexExists for conflicts.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrStore:
		return true
	case ErrIndexExists:
		return e.Status == http.StatusConflict
	}
	return false
}

// NewStoreError builds a StoreError, truncating the body for diagnostics.
func NewStoreError(op string, status int, body []byte) *StoreError {
	if len(body) > MaxErrorBodyBytes {
		cut := MaxErrorBodyBytes
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return &StoreError{Op: op, Status: status, Body: string(body)}
}

// ConfigError wraps a message as a configuration error.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
