package blob

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemStore keeps blobs in process memory. It backs tests and development
// setups with no object store configured.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (m *MemStore) Put(ctx context.Context, data []byte, key, contentType string) (string, error) {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = buf
	return key, nil
}

func (m *MemStore) Get(ctx context.Context, ref string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("blob: %s not found", ref)
	}
	return data, nil
}

// Presign returns a memory:// pseudo-URL. Callers treat it as opaque, so a
// non-fetchable scheme is fine outside production.
func (m *MemStore) Presign(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.blobs[ref]; !ok {
		return "", fmt.Errorf("blob: %s not found", ref)
	}
	return "memory://" + ref, nil
}

func (m *MemStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, ref)
	return nil
}
