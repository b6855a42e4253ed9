package verification_test

import (
	"testing"

	"github.com/credence-id/credence/internal/verification"
)

func wellFormedProof() (verification.Proof, verification.PublicSignals) {
	var p verification.Proof
	for i := range p {
		p[i] = "0x1a2b"
	}
	var s verification.PublicSignals
	for i := range s {
		s[i] = "42"
	}
	return p, s
}

func TestCheckProofShape(t *testing.T) {
	p, s := wellFormedProof()
	if !verification.CheckProofShape(p, s) {
		t.Error("well-formed proof rejected")
	}

	zeroes := []string{"", "0", "0x0", "0x", "0000", "  0x00  "}
	for _, z := range zeroes {
		bad, sig := wellFormedProof()
		bad[3] = z
		if verification.CheckProofShape(bad, sig) {
			t.Errorf("proof component %q should be treated as zero", z)
		}

		good, badSig := wellFormedProof()
		badSig[1] = z
		if verification.CheckProofShape(good, badSig) {
			t.Errorf("public signal %q should be treated as zero", z)
		}
	}

	// A component with any non-zero digit is fine, even zero-padded.
	padded, sig := wellFormedProof()
	padded[0] = "0x000a"
	if !verification.CheckProofShape(padded, sig) {
		t.Error("zero-padded non-zero component rejected")
	}
}
