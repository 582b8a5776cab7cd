package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a Store backed by a JSON sidecar file, conventionally kept
// next to the vendor config. The whole map is read and rewritten on every
// save behind a mutex, with a temp-file rename so a crashed writer never
// leaves a torn file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store over the given sidecar path. The file is
// created lazily on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the sidecar file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the entry for a fingerprint from the sidecar file. A missing
// file is an empty cache, not an error.
func (s *FileStore) Load(fingerprint string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := all[fingerprint]
	return e, ok, nil
}

// Save upserts the entry for a fingerprint and rewrites the sidecar
// atomically.
func (s *FileStore) Save(fingerprint string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[fingerprint] = entry
	return s.writeAll(all)
}

func (s *FileStore) readAll() (map[string]Entry, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Entry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template cache: %w", err)
	}
	all := make(map[string]Entry)
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode template cache: %w", err)
	}
	return all, nil
}

func (s *FileStore) writeAll(all map[string]Entry) error {
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode template cache: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".itemfix-cache-*")
	if err != nil {
		return fmt.Errorf("write template cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write template cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write template cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write template cache: %w", err)
	}
	return nil
}
