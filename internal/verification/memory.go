package verification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// MemoryStore is an in-memory, thread-safe verification store. One mutex
// guards the request map and the status map, so a completion and its
// counter bump commit together.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*Request
	statuses map[ledger.Hash]*CredentialStatus
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[uuid.UUID]*Request),
		statuses: make(map[ledger.Hash]*CredentialStatus),
	}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, req *Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeRequestNotFound,
			"no verification request %s", id)
	}
	cp := *req
	return &cp, nil
}

// Complete implements Store.
func (m *MemoryStore) Complete(_ context.Context, id uuid.UUID, verified bool, resultRef string, at time.Time) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeRequestNotFound,
			"no verification request %s", id)
	}
	if req.State != StatePending {
		return nil, ledger.Errf(ledger.KindConflict, ledger.CodeAlreadyProcessed,
			"request %s is already completed", id)
	}

	v := verified
	req.State = StateCompleted
	req.Verified = &v
	req.ResultRef = resultRef
	completedAt := at
	req.CompletedAt = &completedAt

	if verified {
		st, ok := m.statuses[req.CredentialHash]
		if !ok {
			st = &CredentialStatus{CredentialHash: req.CredentialHash}
			m.statuses[req.CredentialHash] = st
		}
		st.Verified = true
		st.Count++
		st.LastVerifiedAt = &completedAt
	}

	cp := *req
	return &cp, nil
}

// Status implements Store.
func (m *MemoryStore) Status(_ context.Context, hash ledger.Hash) (*CredentialStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[hash]
	if !ok {
		return &CredentialStatus{CredentialHash: hash}, nil
	}
	cp := *st
	return &cp, nil
}
