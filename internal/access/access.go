// Package access implements the owner-governed allowlists of principals
// permitted to issue reputation events or complete verification requests.
package access

import (
	"context"
	"time"

	"github.com/credence-id/credence/internal/ledger"
)

// Role is an allowlist a principal can be granted into.
type Role string

const (
	// RoleIssuer — may issue reputation events.
	RoleIssuer Role = "issuer"
	// RoleVerifier — may complete verification requests.
	RoleVerifier Role = "verifier"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleIssuer || r == RoleVerifier }

// Grant is a single allowlist entry. Revocation flips Active rather than
// deleting the row, so grant history survives.
type Grant struct {
	Principal ledger.Principal `json:"principal"  db:"principal"`
	Role      Role             `json:"role"       db:"role"`
	Active    bool             `json:"active"     db:"active"`
	GrantedBy ledger.Principal `json:"granted_by" db:"granted_by"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// Store is the persistence interface for role grants.
// Both MemoryStore and PostgresStore implement it.
type Store interface {
	// Get returns the grant for (principal, role), or a NotFound ledger error.
	Get(ctx context.Context, principal ledger.Principal, role Role) (*Grant, error)

	// Put inserts or replaces the grant for (principal, role).
	Put(ctx context.Context, g *Grant) error

	// List returns all grants, active and revoked, for a principal.
	List(ctx context.Context, principal ledger.Principal) ([]*Grant, error)
}
