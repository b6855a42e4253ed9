package verification

import "strings"

// CheckProofShape is a structural placeholder, not a cryptographic check.
// It reports whether every proof component and public signal is non-zero.
// A true result means only that the submission is well-formed; it carries
// no statement about credential validity. Swap in a real verifier behind
// this operation when one exists.
func CheckProofShape(proof Proof, signals PublicSignals) bool {
	for _, c := range proof {
		if isZeroComponent(c) {
			return false
		}
	}
	for _, c := range signals {
		if isZeroComponent(c) {
			return false
		}
	}
	return true
}

// isZeroComponent treats the empty string and any all-zero numeric form
// ("0", "0x0", "000…") as the zero value.
func isZeroComponent(c string) bool {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c)), "0x")
	if s == "" {
		return true
	}
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}
