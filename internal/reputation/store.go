package reputation

import (
	"context"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// Store is the persistence interface for reputation accounts and events.
// Apply is atomic: the event append and the account update commit together
// or not at all, and racing events for the same target serialize.
//
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// Apply appends ev, creating the target's account on first use, adds the
	// delta to the total score, bumps the positive/negative counter, and
	// recomputes the trust level. It returns the updated account and the
	// trust level the account held before this event.
	Apply(ctx context.Context, ev *Event) (acct *Account, prevLevel int, err error)

	// GetAccount returns the account for principal, or a NotFound error if
	// no event has ever targeted it.
	GetAccount(ctx context.Context, principal ledger.Principal) (*Account, error)

	// ListEvents returns all events targeting principal, most recent first.
	ListEvents(ctx context.Context, principal ledger.Principal) ([]*Event, error)

	// GetEvent returns a single event by id.
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
}
