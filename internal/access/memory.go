package access

import (
	"context"
	"sync"

	"github.com/credence-id/credence/internal/ledger"
)

// MemoryStore is an in-memory, thread-safe grant store. It is primarily
// useful for testing and for single-process deployments without Postgres.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[grantKey]*Grant
}

type grantKey struct {
	principal ledger.Principal
	role      Role
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[grantKey]*Grant)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, principal ledger.Principal, role Role) (*Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grants[grantKey{principal, role}]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeGrantNotFound, "no %s grant for %s", role, principal)
	}
	cp := *g
	return &cp, nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, g *Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.grants[grantKey{g.Principal, g.Role}] = &cp
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, principal ledger.Principal) ([]*Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Grant
	for k, g := range m.grants {
		if k.principal == principal {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}
