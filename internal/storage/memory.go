package storage

import (
	"context"
	"sync"

	apperrors "insight-workers/internal/common/errors"
)

type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewUnavailableError("content-store", err)
	}
	id := ContentID(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		s.blobs[id] = append([]byte(nil), data...)
	}
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewUnavailableError("content-store", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[id]
	if !ok {
		return nil, apperrors.NewContentNotFoundError(id)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.NewUnavailableError("content-store", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[id]
	return ok, nil
}

// Len returns the number of distinct blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
