package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// MemoryStorage keeps documents in memory. It is meant for development and
// tests; documents are lost on restart.
type MemoryStorage struct {
	// BaseURL prefixes the returned locations
	BaseURL string

	mu   sync.RWMutex
	docs map[string]memoryDocument
	now  func() time.Time
}

type memoryDocument struct {
	data     []byte
	storedAt time.Time
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		BaseURL: baseURL,
		docs:    make(map[string]memoryDocument),
		now:     time.Now,
	}
}

// Store saves a copy of the document
func (s *MemoryStorage) Store(ctx context.Context, req *StoreRequest) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.docs[req.Name] = memoryDocument{data: append([]byte(nil), req.Data...), storedAt: s.now()}
	s.mu.Unlock()

	return &StoreResult{
		Key:      req.Name,
		Location: s.BaseURL + "/" + req.Name,
		Size:     int64(len(req.Data)),
	}, nil
}

// Get returns the stored document
func (s *MemoryStorage) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	doc, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(doc.data)), nil
}

// Delete removes the document
func (s *MemoryStorage) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.docs, name)
	s.mu.Unlock()
	return nil
}

// CleanupOlderThan removes documents stored more than age ago
func (s *MemoryStorage) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for name, doc := range s.docs {
		if doc.storedAt.Before(cutoff) {
			delete(s.docs, name)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored documents
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

var (
	_ DocumentStore = (*MemoryStorage)(nil)
	_ Sweeper       = (*MemoryStorage)(nil)
)
