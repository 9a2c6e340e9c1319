package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"endee-rag/internal/models"
)

// Store maps chunk IDs to their metadata. Put only stages entries; they are
// durable after Flush.
type Store interface {
	Get(ctx context.Context, id string) (models.ChunkMetadata, bool, error)
	Put(chunks ...models.Chunk)
	Flush(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// FileStore keeps the whole table in memory and rewrites the JSON file on
// every flush. Two processes flushing the same file lose each other's writes.
type FileStore struct {
	path string

	mu      sync.RWMutex
	entries map[string]models.ChunkMetadata
}

// OpenFile loads path if it exists; a missing file starts an empty table.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path, entries: map[string]models.ChunkMetadata{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("No metadata file yet")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return nil, fmt.Errorf("parse metadata %s: %w", path, err)
		}
	}
	log.Debug().Str("path", path).Int("entries", len(s.entries)).Msg("Loaded metadata")
	return s, nil
}

func (s *FileStore) Get(_ context.Context, id string) (models.ChunkMetadata, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.entries[id]
	return m, ok, nil
}

func (s *FileStore) Put(chunks ...models.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.entries[c.ID] = c.Metadata()
	}
}

// Flush writes the full table with two-space indentation.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metadata dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", s.path, err)
	}
	return nil
}

// Delete removes an entry and flushes. Unknown IDs are ignored.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Flush(ctx)
}

// Len reports how many entries are held, flushed or not.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *FileStore) Close() error { return nil }
