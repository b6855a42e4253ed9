// Package identity implements the identity ledger: registration, update, and
// deactivation of principal↔credential bindings. It enforces the two
// bijections the rest of the system depends on — one identity per owner
// principal, one active binding per credential hash.
package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// Identity binds an owner principal to a credential fingerprint.
//
// Deactivation flips Active but keeps both the owner and hash bindings in
// place, so a deactivated credential hash can never be claimed again.
type Identity struct {
	ID             uuid.UUID        `json:"id"              db:"id"`
	Owner          ledger.Principal `json:"owner"           db:"owner_principal"`
	CredentialHash ledger.Hash      `json:"credential_hash" db:"credential_hash"`
	MetadataRef    string           `json:"metadata_ref"    db:"metadata_ref"`
	CreatedAt      time.Time        `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"      db:"updated_at"`
	Active         bool             `json:"active"          db:"active"`
}
