// Package reputation implements the append-only reputation event log and the
// per-principal score and trust level derived from it.
package reputation

import (
	"time"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/ledger"
)

// Delta bounds for a single reputation event. Zero is also rejected.
const (
	MinDelta = -50
	MaxDelta = 50
)

// Account is the accumulated reputation state for one principal. It is
// created implicitly by the first applied event and never deleted.
//
// TotalScore is genuinely signed: cumulative negative deltas may drive it
// below zero, and the trust level clamps to the lowest level for any score
// under the first threshold.
type Account struct {
	Principal     ledger.Principal `json:"principal"      db:"principal"`
	TotalScore    int64            `json:"total_score"    db:"total_score"`
	TrustLevel    int              `json:"trust_level"    db:"trust_level"`
	PositiveCount int64            `json:"positive_count" db:"positive_count"`
	NegativeCount int64            `json:"negative_count" db:"negative_count"`
	LastUpdated   time.Time        `json:"last_updated"   db:"last_updated"`
	Active        bool             `json:"active"         db:"active"`
}

// Event is one immutable entry in a principal's score history.
type Event struct {
	ID          uuid.UUID        `json:"id"          db:"id"`
	Target      ledger.Principal `json:"target"      db:"target_principal"`
	Issuer      ledger.Principal `json:"issuer"      db:"issuer_principal"`
	Delta       int64            `json:"delta"       db:"delta"`
	EventType   string           `json:"event_type"  db:"event_type"`
	Description string           `json:"description" db:"description"`
	ProofRef    string           `json:"proof_ref"   db:"proof_ref"`
	Timestamp   time.Time        `json:"timestamp"   db:"timestamp"`
}
