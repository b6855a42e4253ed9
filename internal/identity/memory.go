package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// MemoryStore is an in-memory, thread-safe identity store. A single mutex
// guards the row map and both index maps, giving every mutation the same
// all-or-nothing semantics as a database transaction.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Identity
	byOwner map[ledger.Principal]uuid.UUID
	byHash  map[ledger.Hash]uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]*Identity),
		byOwner: make(map[ledger.Principal]uuid.UUID),
		byHash:  make(map[ledger.Hash]uuid.UUID),
	}
}

// Insert implements Store.
func (m *MemoryStore) Insert(_ context.Context, id *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, bound := m.byOwner[id.Owner]; bound {
		return ledger.Errf(ledger.KindConflict, ledger.CodeIdentityExists,
			"principal %s already has an identity", id.Owner)
	}
	if _, bound := m.byHash[id.CredentialHash]; bound {
		return ledger.Errf(ledger.KindConflict, ledger.CodeHashAlreadyUsed,
			"credential hash is already bound")
	}

	cp := *id
	m.byID[cp.ID] = &cp
	m.byOwner[cp.Owner] = cp.ID
	m.byHash[cp.CredentialHash] = cp.ID
	return nil
}

// SwapHash implements Store.
func (m *MemoryStore) SwapHash(_ context.Context, owner ledger.Principal, newHash ledger.Hash, newMetadataRef string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byOwner[owner]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeIdentityNotFound,
			"principal %s has no identity", owner)
	}
	row := m.byID[idx]
	if !row.Active {
		return nil, ledger.Errf(ledger.KindState, ledger.CodeIdentityInactive,
			"identity for %s is deactivated", owner)
	}
	if boundID, bound := m.byHash[newHash]; bound && boundID != idx {
		return nil, ledger.Errf(ledger.KindConflict, ledger.CodeHashAlreadyUsed,
			"credential hash is already bound")
	}

	delete(m.byHash, row.CredentialHash)
	row.CredentialHash = newHash
	row.MetadataRef = newMetadataRef
	row.UpdatedAt = time.Now().UTC()
	m.byHash[newHash] = idx

	cp := *row
	return &cp, nil
}

// SetInactive implements Store.
func (m *MemoryStore) SetInactive(_ context.Context, owner ledger.Principal) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byOwner[owner]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeIdentityNotFound,
			"principal %s has no identity", owner)
	}
	row := m.byID[idx]
	if !row.Active {
		return nil, ledger.Errf(ledger.KindConflict, ledger.CodeAlreadyInactive,
			"identity for %s is already inactive", owner)
	}

	row.Active = false
	row.UpdatedAt = time.Now().UTC()

	cp := *row
	return &cp, nil
}

// GetByOwner implements Store.
func (m *MemoryStore) GetByOwner(_ context.Context, owner ledger.Principal) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byOwner[owner]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeIdentityNotFound,
			"principal %s has no identity", owner)
	}
	cp := *m.byID[idx]
	return &cp, nil
}

// Counts implements Store.
func (m *MemoryStore) Counts(_ context.Context) (active, inactive int64, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.byID {
		if row.Active {
			active++
		} else {
			inactive++
		}
	}
	return active, inactive, nil
}

// GetByHash implements Store.
func (m *MemoryStore) GetByHash(_ context.Context, hash ledger.Hash) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byHash[hash]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeCredentialHash,
			"credential hash is not bound")
	}
	cp := *m.byID[idx]
	return &cp, nil
}
