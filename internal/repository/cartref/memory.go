package cartref

import (
	"context"
	"sync"

	"inkblot-storefront/internal/domain"
)

type memoryRepo struct {
	mu   sync.RWMutex
	refs map[string]string
}

// NewMemory returns a process-local Repository.
func NewMemory() Repository {
	return &memoryRepo{refs: make(map[string]string)}
}

func (m *memoryRepo) Get(_ context.Context, profileID string) (string, error) {
	m.mu.RLock()
	id, ok := m.refs[profileID]
	m.mu.RUnlock()
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (m *memoryRepo) Put(_ context.Context, profileID, cartID string) error {
	m.mu.Lock()
	m.refs[profileID] = cartID
	m.mu.Unlock()
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.refs[profileID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.refs, profileID)
	return nil
}

func (m *memoryRepo) Ping(context.Context) error { return nil }
