package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps files in process. Used by tests and STORAGE_DRIVER=memory.
type MemoryStore struct {
	mu        sync.RWMutex
	files     map[string][]byte
	publicURL string
}

func NewMemoryStore(publicURL string) *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte), publicURL: publicURL}
}

func (s *MemoryStore) WriteFile(ctx context.Context, p string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) DeleteFile(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := cleanKey(p)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[key]
	return ok, nil
}

func (s *MemoryStore) URL(p string) string {
	return joinURL(s.publicURL, p)
}

// Read returns a copy of a stored file.
func (s *MemoryStore) Read(p string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.files[p]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Len reports how many files are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
