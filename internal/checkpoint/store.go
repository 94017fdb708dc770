package checkpoint

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/park285/skullking-companion/internal/lifecycle"
)

// ErrNotFound is returned by Load when the operator has no checkpoint.
var ErrNotFound = errors.New("checkpoint not found")

// Store keeps one resumable controller snapshot per operator.
type Store interface {
	Save(ctx context.Context, operatorID string, snap lifecycle.Snapshot) error
	Load(ctx context.Context, operatorID string) (lifecycle.Snapshot, error)
	Delete(ctx context.Context, operatorID string) error
}

// memoryStore is used when no Redis is configured. Checkpoints do not
// survive a process restart.
type memoryStore struct {
	mu    sync.RWMutex
	items map[string]lifecycle.Snapshot
}

func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]lifecycle.Snapshot)}
}

func (m *memoryStore) Save(_ context.Context, operatorID string, snap lifecycle.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Session = snap.Session.Clone()
	m.items[strings.TrimSpace(operatorID)] = snap
	return nil
}

func (m *memoryStore) Load(_ context.Context, operatorID string) (lifecycle.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.items[strings.TrimSpace(operatorID)]
	if !ok {
		return lifecycle.Snapshot{}, ErrNotFound
	}
	snap.Session = snap.Session.Clone()
	return snap, nil
}

func (m *memoryStore) Delete(_ context.Context, operatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, strings.TrimSpace(operatorID))
	return nil
}
