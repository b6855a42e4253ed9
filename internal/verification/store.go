package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// Store is the persistence interface for verification requests and per-hash
// credential status. Complete is atomic and exactly-once: of two racing
// completions for the same request, one succeeds and the other observes
// Conflict(already_processed).
//
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// Create inserts a new pending request.
	Create(ctx context.Context, req *Request) error

	// Get returns a request by id, or a NotFound error.
	Get(ctx context.Context, id uuid.UUID) (*Request, error)

	// Complete transitions the request to Completed, records verified and
	// resultRef, and — when verified is true — marks the credential hash
	// verified and increments its verification counter, all in one atomic
	// unit. Returns NotFound for an unknown id and
	// Conflict(already_processed) when the request is already completed.
	Complete(ctx context.Context, id uuid.UUID, verified bool, resultRef string, at time.Time) (*Request, error)

	// Status returns the credential status for hash. A hash no verified
	// completion has ever touched yields a zero-valued status, not an error.
	Status(ctx context.Context, hash ledger.Hash) (*CredentialStatus, error)
}
