// Package ledger holds the domain kernel shared by every ledger component:
// the Principal and Hash value types and the error taxonomy returned by all
// mutating and querying operations.
package ledger

import "strings"

// Principal is an opaque identifier for any actor interacting with the
// ledger — identity owner, reputation issuer, verifier, or requester.
type Principal string

// IsZero reports whether the principal is empty.
func (p Principal) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// Hash is a hex-encoded credential fingerprint. The ledger never sees
// credential contents, only this value.
type Hash string

// Normalize lowercases the hash and strips an optional "0x" prefix so that
// equal fingerprints compare equal regardless of caller formatting.
func (h Hash) Normalize() Hash {
	s := strings.ToLower(strings.TrimSpace(string(h)))
	s = strings.TrimPrefix(s, "0x")
	return Hash(s)
}

// IsZero reports whether the hash is the zero value: empty, or all zero
// digits. A zero fingerprint can never be bound to an identity.
func (h Hash) IsZero() bool {
	s := string(h.Normalize())
	if s == "" {
		return true
	}
	for _, c := range s {
		if c != '0' {
			return false
		}
	}
	return true
}
