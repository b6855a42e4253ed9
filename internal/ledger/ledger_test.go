package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/credence-id/credence/internal/ledger"
)

func TestHash_Normalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"ABCDEF", "abcdef"},
		{"0xABCdef", "abcdef"},
		{"  0xff00  ", "ff00"},
		{"deadbeef", "deadbeef"},
	}
	for _, c := range cases {
		if got := ledger.Hash(c.in).Normalize(); string(got) != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHash_IsZero(t *testing.T) {
	zero := []string{"", "0", "0x0", "0x", "0000000000", "0x00000"}
	for _, s := range zero {
		if !ledger.Hash(s).IsZero() {
			t.Errorf("IsZero(%q) = false, want true", s)
		}
	}

	nonZero := []string{"1", "0x01", "00a0", "deadbeef"}
	for _, s := range nonZero {
		if ledger.Hash(s).IsZero() {
			t.Errorf("IsZero(%q) = true, want false", s)
		}
	}
}

func TestPrincipal_IsZero(t *testing.T) {
	if !ledger.Principal("").IsZero() {
		t.Error("empty principal should be zero")
	}
	if !ledger.Principal("   ").IsZero() {
		t.Error("whitespace principal should be zero")
	}
	if ledger.Principal("alice").IsZero() {
		t.Error("non-empty principal should not be zero")
	}
}

func TestErrf_kindAndCode(t *testing.T) {
	err := ledger.Errf(ledger.KindConflict, ledger.CodeHashAlreadyUsed, "hash taken")

	if !ledger.IsConflict(err) {
		t.Error("IsConflict() = false")
	}
	if ledger.IsNotFound(err) {
		t.Error("IsNotFound() = true for a conflict error")
	}
	if got := ledger.KindOf(err); got != ledger.KindConflict {
		t.Errorf("KindOf() = %q, want %q", got, ledger.KindConflict)
	}
	if got := ledger.CodeOf(err); got != ledger.CodeHashAlreadyUsed {
		t.Errorf("CodeOf() = %q, want %q", got, ledger.CodeHashAlreadyUsed)
	}
}

func TestKindOf_wrappedError(t *testing.T) {
	inner := ledger.Errf(ledger.KindNotFound, ledger.CodeIdentityNotFound, "no identity")
	wrapped := fmt.Errorf("load identity: %w", inner)

	if ledger.KindOf(wrapped) != ledger.KindNotFound {
		t.Error("KindOf should see through fmt.Errorf wrapping")
	}
	if !ledger.IsNotFound(wrapped) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
}

func TestKindOf_plainError(t *testing.T) {
	err := errors.New("connection refused")
	if ledger.KindOf(err) != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", ledger.KindOf(err))
	}
	if ledger.CodeOf(err) != "" {
		t.Error("CodeOf(plain error) should be empty")
	}
}
