package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger error. The API layer maps kinds to HTTP statuses;
// callers branch on kinds rather than on message text.
type Kind string

const (
	// KindValidation — malformed input: zero hash, empty type, delta out of range.
	KindValidation Kind = "validation"
	// KindNotFound — unknown owner, hash, request, or event.
	KindNotFound Kind = "not_found"
	// KindConflict — duplicate binding, already-processed request, already-inactive identity.
	KindConflict Kind = "conflict"
	// KindUnauthorized — caller lacks the required role.
	KindUnauthorized Kind = "unauthorized"
	// KindState — operation invalid for the current lifecycle state.
	KindState Kind = "state"
)

// Stable error codes carried by Error.Code.
const (
	CodeIdentityExists      = "identity_already_exists"
	CodeHashAlreadyUsed     = "hash_already_used"
	CodeInvalidHash         = "invalid_hash"
	CodeIdentityNotFound    = "identity_not_found"
	CodeIdentityInactive    = "identity_inactive"
	CodeAlreadyInactive     = "already_inactive"
	CodeTargetNotRegistered = "target_not_registered"
	CodeDeltaOutOfBounds    = "delta_out_of_bounds"
	CodeZeroDelta           = "zero_delta"
	CodeEmptyField          = "empty_field"
	CodeNotIssuer           = "not_issuer"
	CodeNotVerifier         = "not_verifier"
	CodeNotOwner            = "not_owner"
	CodeRequestNotFound     = "request_not_found"
	CodeAlreadyProcessed    = "already_processed"
	CodeEventNotFound       = "event_not_found"
	CodeAccountNotFound     = "account_not_found"
	CodeCredentialHash      = "credential_hash_not_found"
	CodeUnknownRole         = "unknown_role"
	CodeGrantNotFound       = "grant_not_found"
)

// Error is the typed error returned by every ledger operation that fails a
// domain rule. Infrastructure failures (database, network) are wrapped with
// fmt.Errorf instead and carry no Kind.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind) + ": " + e.Code
	}
	return string(e.Kind) + ": " + e.Msg
}

// Errf builds a ledger Error with a formatted message.
func Errf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or "" when err carries no ledger Error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// CodeOf returns the stable code of err, or "" for non-ledger errors.
func CodeOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsState(err error) bool        { return KindOf(err) == KindState }
