package reputation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// MemoryStore is an in-memory, thread-safe reputation store. One mutex
// guards the account map and the event log so Apply is all-or-nothing.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[ledger.Principal]*Account
	byTarget map[ledger.Principal][]*Event // append order, oldest first
	byID     map[uuid.UUID]*Event
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[ledger.Principal]*Account),
		byTarget: make(map[ledger.Principal][]*Event),
		byID:     make(map[uuid.UUID]*Event),
	}
}

// Apply implements Store.
func (m *MemoryStore) Apply(_ context.Context, ev *Event) (*Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[ev.Target]
	if !ok {
		acct = &Account{Principal: ev.Target, TrustLevel: LevelForScore(0), Active: true}
		m.accounts[ev.Target] = acct
	}
	prevLevel := acct.TrustLevel

	cp := *ev
	m.byTarget[ev.Target] = append(m.byTarget[ev.Target], &cp)
	m.byID[ev.ID] = &cp

	acct.TotalScore += ev.Delta
	if ev.Delta > 0 {
		acct.PositiveCount++
	} else {
		acct.NegativeCount++
	}
	acct.LastUpdated = ev.Timestamp
	acct.TrustLevel = LevelForScore(acct.TotalScore)

	out := *acct
	return &out, prevLevel, nil
}

// GetAccount implements Store.
func (m *MemoryStore) GetAccount(_ context.Context, principal ledger.Principal) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[principal]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeAccountNotFound,
			"no reputation account for %s", principal)
	}
	cp := *acct
	return &cp, nil
}

// ListEvents implements Store.
func (m *MemoryStore) ListEvents(_ context.Context, principal ledger.Principal) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.byTarget[principal]
	out := make([]*Event, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- { // most recent first
		cp := *log[i]
		out = append(out, &cp)
	}
	return out, nil
}

// GetEvent implements Store.
func (m *MemoryStore) GetEvent(_ context.Context, id uuid.UUID) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.byID[id]
	if !ok {
		return nil, ledger.Errf(ledger.KindNotFound, ledger.CodeEventNotFound,
			"no reputation event %s", id)
	}
	cp := *ev
	return &cp, nil
}
