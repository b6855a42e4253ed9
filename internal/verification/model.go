// Package verification implements the credential verification workflow:
// pending requests against credential hashes, exactly-once completion, and
// the per-hash verified flag and counter.
package verification

import (
	"time"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// RequestState is the lifecycle state of a verification request.
// Pending → Completed is the only transition; Completed is terminal.
type RequestState string

const (
	StatePending   RequestState = "pending"
	StateCompleted RequestState = "completed"
)

// Proof holds the eight components of a submitted ownership proof. The
// ledger treats them as opaque strings; see CheckProofShape.
type Proof [8]string

// PublicSignals holds the four public inputs accompanying a proof.
type PublicSignals [4]string

// Request is one unit of verification work. Verified is nil while the
// request is pending and set exactly once at completion.
type Request struct {
	ID             uuid.UUID        `json:"id"                        db:"id"`
	Requester      ledger.Principal `json:"requester"                 db:"requester_principal"`
	CredentialHash ledger.Hash      `json:"credential_hash"           db:"credential_hash"`
	Type           string           `json:"verification_type"         db:"verification_type"`
	Proof          Proof            `json:"proof"                     db:"proof"`
	PublicSignals  PublicSignals    `json:"public_signals"            db:"public_signals"`
	State          RequestState     `json:"state"                     db:"state"`
	Verified       *bool            `json:"verified,omitempty"        db:"verified"`
	ResultRef      string           `json:"result_ref,omitempty"      db:"result_ref"`
	CreatedAt      time.Time        `json:"created_at"                db:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"    db:"completed_at"`
}

// CredentialStatus is the per-hash verification summary maintained by
// completed-and-verified requests.
type CredentialStatus struct {
	CredentialHash ledger.Hash `json:"credential_hash"            db:"credential_hash"`
	Verified       bool        `json:"verified"                   db:"verified"`
	Count          uint64      `json:"verification_count"         db:"verification_count"`
	LastVerifiedAt *time.Time  `json:"last_verified_at,omitempty" db:"last_verified_at"`
}
