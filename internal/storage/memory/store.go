package memory

import (
	"context"
	"sync"

	"github.com/yndnr/fintrack-go/internal/storage"
)

// Store is an in-memory storage.KVEngine.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Get retrieves a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	v, ok := s.data[string(key)]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return clone(v), nil
}

// GetMany reads several keys under one read lock.
func (s *Store) GetMany(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if v, ok := s.data[string(key)]; ok {
			out[string(key)] = clone(v)
		}
	}
	return out, nil
}

// Set stores a key-value pair.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	return s.WriteBatch(ctx, new(storage.Batch).Put(key, value))
}

// WriteBatch applies every put and delete under one write lock.
func (s *Store) WriteBatch(ctx context.Context, batch *storage.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if batch == nil {
		return nil
	}
	for _, kv := range batch.Puts {
		s.data[string(kv.Key)] = clone(kv.Value)
	}
	for _, key := range batch.Deletes {
		delete(s.data, string(key))
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close marks the store closed. Further calls fail with storage.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
