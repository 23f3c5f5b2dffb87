package object

import (
	"context"
	"sync"
)

// MemStore is an in-process object store: a map from id to envelope bytes.
// It is the reference implementation of the store contract and is safe for
// concurrent use.
type MemStore struct {
	typedStore
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	s := &MemStore{objects: make(map[string][]byte)}
	s.raw = s
	return s
}

// Len reports the number of stored objects.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *MemStore) put(ctx context.Context, id string, env []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; ok {
		return nil
	}
	cp := make([]byte, len(env))
	copy(cp, env)
	s.objects[id] = cp
	return nil
}

func (s *MemStore) get(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.objects[id]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(env))
	copy(cp, env)
	return cp, true, nil
}
