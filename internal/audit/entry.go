package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenesisHash is the canonical well-known hash of the genesis entry.
// It anchors the chain; every later entry hash chains from this constant
// rather than from a computed value.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// systemActor is recorded on entries the ledger writes about itself.
const systemActor = "credence-system"

// Entry is a single audit record. Entries are append-only; each one commits
// to its predecessor through PrevHash.
type Entry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"` // domain event type, or "genesis"
	Key       string    `json:"key"`        // entity key the event is ordered by
	Actor     string    `json:"actor"`      // principal whose operation produced the event
	DataHash  string    `json:"data_hash"`  // SHA-256 of the event payload
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// hashEntry computes a deterministic SHA-256 hash over an entry's fields.
// Never called on the genesis entry (index 0).
func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.Format(time.RFC3339Nano),
		e.EventType, e.Key, e.Actor, e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// sha256Sum returns the hex-encoded SHA-256 digest of data.
func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
