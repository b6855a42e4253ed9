package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/credence-id/credence/internal/ledger"
)

// ErrBadCredentials is returned when a principal or secret does not match.
// The two cases are deliberately indistinguishable to callers.
var ErrBadCredentials = errors.New("unknown principal or wrong secret")

// CredentialStore holds bcrypt-hashed API secrets per principal and answers
// login attempts. Secrets are write-only: there is no way to read one back.
type CredentialStore struct {
	mu     sync.RWMutex
	hashes map[ledger.Principal][]byte
}

// NewCredentialStore creates an empty CredentialStore.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{hashes: make(map[ledger.Principal][]byte)}
}

// Register hashes and stores the secret for principal, replacing any
// previous one.
func (c *CredentialStore) Register(_ context.Context, principal ledger.Principal, secret string) error {
	if principal.IsZero() || secret == "" {
		return fmt.Errorf("principal and secret are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[principal] = hash
	return nil
}

// Authenticate checks secret against the stored hash for principal.
func (c *CredentialStore) Authenticate(_ context.Context, principal ledger.Principal, secret string) error {
	c.mu.RLock()
	hash, ok := c.hashes[principal]
	c.mu.RUnlock()
	if !ok {
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
