package identity

import (
	"context"

	"github.com/credence-id/credence/internal/ledger"
)

// Store is the persistence interface for identities. Every mutating method
// is atomic: the identity row and both index bindings (owner→id, hash→id)
// change together or not at all, and racing calls on the same owner or hash
// serialize so that exactly one succeeds.
//
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// Insert claims the owner and hash bindings and stores the identity.
	// Returns Conflict(identity_already_exists) when the owner is bound and
	// Conflict(hash_already_used) when the hash is bound.
	Insert(ctx context.Context, id *Identity) error

	// SwapHash atomically releases the identity's current hash binding and
	// claims newHash, updating the metadata ref in the same step. There is
	// no observable intermediate state where neither or both hashes resolve.
	// Returns NotFound for an unknown owner, State(identity_inactive) for a
	// deactivated identity, and Conflict(hash_already_used) when newHash is
	// bound to a different identity.
	SwapHash(ctx context.Context, owner ledger.Principal, newHash ledger.Hash, newMetadataRef string) (*Identity, error)

	// SetInactive flips the identity to inactive, leaving both bindings in
	// place. Returns NotFound for an unknown owner and
	// Conflict(already_inactive) when already deactivated.
	SetInactive(ctx context.Context, owner ledger.Principal) (*Identity, error)

	// GetByOwner returns the identity bound to owner, active or not.
	GetByOwner(ctx context.Context, owner ledger.Principal) (*Identity, error)

	// GetByHash returns the identity bound to hash, active or not.
	GetByHash(ctx context.Context, hash ledger.Hash) (*Identity, error)

	// Counts returns the number of active and inactive identities.
	Counts(ctx context.Context) (active, inactive int64, err error)
}
