package identity_test

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/events"
	"github.com/credence-id/credence/internal/identity"
	"github.com/credence-id/credence/internal/ledger"
)

var ctx = context.Background()

const (
	hashA = ledger.Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1")
	hashB = ledger.Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2")
)

func newService(t *testing.T) (*identity.Service, *events.MemorySink) {
	t.Helper()
	sink := events.NewMemorySink()
	return identity.NewService(identity.NewMemoryStore(), sink, zap.NewNop()), sink
}

func TestRegister(t *testing.T) {
	svc, sink := newService(t)

	id, err := svc.Register(ctx, "alice", hashA, "")
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetByOwner(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != id {
		t.Errorf("GetByOwner id = %s, want %s", got.ID, id)
	}
	if !got.Active {
		t.Error("new identity should be active")
	}
	if got.CredentialHash != hashA {
		t.Errorf("hash = %q, want %q", got.CredentialHash, hashA)
	}

	if n := len(sink.ByType(events.TypeIdentityRegistered)); n != 1 {
		t.Errorf("expected 1 IdentityRegistered event, got %d", n)
	}
}

func TestRegister_zeroHashRejected(t *testing.T) {
	svc, _ := newService(t)

	for _, h := range []ledger.Hash{"", "0", "0x0", "0x000000"} {
		_, err := svc.Register(ctx, "alice", h, "")
		if !ledger.IsValidation(err) {
			t.Errorf("Register(%q): got %v, want validation error", h, err)
		}
	}
}

func TestRegister_duplicateOwner(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Register(ctx, "alice", hashA, ""); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, "alice", hashB, "")
	if !ledger.IsConflict(err) {
		t.Errorf("second register for same owner: got %v, want conflict", err)
	}
	if ledger.CodeOf(err) != ledger.CodeIdentityExists {
		t.Errorf("code = %q, want %q", ledger.CodeOf(err), ledger.CodeIdentityExists)
	}
}

func TestRegister_duplicateHash(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Register(ctx, "alice", hashA, ""); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, "bob", hashA, "")
	if ledger.CodeOf(err) != ledger.CodeHashAlreadyUsed {
		t.Errorf("reuse of bound hash: got %v, want hash_already_used", err)
	}

	// Normalized forms collide too.
	_, err = svc.Register(ctx, "carol", ledger.Hash("0x"+string(hashA)), "")
	if ledger.CodeOf(err) != ledger.CodeHashAlreadyUsed {
		t.Errorf("reuse via 0x prefix: got %v, want hash_already_used", err)
	}
}

func TestUpdate_rotatesHash(t *testing.T) {
	svc, sink := newService(t)

	if _, err := svc.Register(ctx, "alice", hashA, "ref-1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(ctx, "alice", hashB, "ref-2"); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetByOwner(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.CredentialHash != hashB {
		t.Errorf("hash after update = %q, want %q", got.CredentialHash, hashB)
	}
	if got.MetadataRef != "ref-2" {
		t.Errorf("metadata ref = %q, want ref-2", got.MetadataRef)
	}

	// The old binding is released: bob may claim hashA now.
	if _, err := svc.Register(ctx, "bob", hashA, ""); err != nil {
		t.Errorf("released hash should be claimable: %v", err)
	}

	if n := len(sink.ByType(events.TypeIdentityUpdated)); n != 1 {
		t.Errorf("expected 1 IdentityUpdated event, got %d", n)
	}
}

func TestUpdate_unknownOwner(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Update(ctx, "nobody", hashA, "")
	if !ledger.IsNotFound(err) {
		t.Errorf("update of unknown owner: got %v, want not found", err)
	}
}

func TestUpdate_hashHeldByOther(t *testing.T) {
	svc, _ := newService(t)

	_, _ = svc.Register(ctx, "alice", hashA, "")
	_, _ = svc.Register(ctx, "bob", hashB, "")

	err := svc.Update(ctx, "alice", hashB, "")
	if ledger.CodeOf(err) != ledger.CodeHashAlreadyUsed {
		t.Errorf("rotating onto bob's hash: got %v, want hash_already_used", err)
	}

	// Alice's binding is untouched by the failed rotation.
	got, _ := svc.GetByOwner(ctx, "alice")
	if got.CredentialHash != hashA {
		t.Errorf("failed update must not change the hash: got %q", got.CredentialHash)
	}
}

func TestDeactivate(t *testing.T) {
	svc, sink := newService(t)

	_, _ = svc.Register(ctx, "alice", hashA, "")
	if err := svc.Deactivate(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetByOwner(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Error("identity should be inactive after deactivate")
	}

	// Terminal: repeat deactivation conflicts.
	err = svc.Deactivate(ctx, "alice")
	if ledger.CodeOf(err) != ledger.CodeAlreadyInactive {
		t.Errorf("second deactivate: got %v, want already_inactive", err)
	}

	// Updates are rejected on an inactive identity.
	err = svc.Update(ctx, "alice", hashB, "")
	if !ledger.IsState(err) {
		t.Errorf("update after deactivate: got %v, want state error", err)
	}

	// The hash binding survives: nobody can re-register hashA.
	_, err = svc.Register(ctx, "bob", hashA, "")
	if ledger.CodeOf(err) != ledger.CodeHashAlreadyUsed {
		t.Errorf("deactivated hash must stay bound: got %v", err)
	}

	if n := len(sink.ByType(events.TypeIdentityDeactivated)); n != 1 {
		t.Errorf("expected 1 IdentityDeactivated event, got %d", n)
	}
}

func TestIsActive(t *testing.T) {
	svc, _ := newService(t)

	// Unknown owner is inactive, not an error.
	active, err := svc.IsActive(ctx, "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("unknown owner should be inactive")
	}

	_, _ = svc.Register(ctx, "alice", hashA, "")
	if active, _ = svc.IsActive(ctx, "alice"); !active {
		t.Error("registered owner should be active")
	}

	_ = svc.Deactivate(ctx, "alice")
	if active, _ = svc.IsActive(ctx, "alice"); active {
		t.Error("deactivated owner should be inactive")
	}
}

func TestHashIsBoundAndActive(t *testing.T) {
	svc, _ := newService(t)

	ok, err := svc.HashIsBoundAndActive(ctx, hashA)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unbound hash should report false")
	}

	_, _ = svc.Register(ctx, "alice", hashA, "")
	if ok, _ = svc.HashIsBoundAndActive(ctx, "0x"+hashA); !ok {
		t.Error("bound hash should report true under any formatting")
	}

	_ = svc.Deactivate(ctx, "alice")
	if ok, _ = svc.HashIsBoundAndActive(ctx, hashA); ok {
		t.Error("hash of deactivated identity should report false")
	}
}

func TestRegister_concurrentSameHash(t *testing.T) {
	svc, _ := newService(t)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := ledger.Principal(string(rune('a' + i)))
			_, errs[i] = svc.Register(ctx, owner, hashA, "")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else if ledger.CodeOf(err) != ledger.CodeHashAlreadyUsed {
			t.Errorf("loser got %v, want hash_already_used", err)
		}
	}
	if won != 1 {
		t.Errorf("exactly one racer should win the hash, got %d", won)
	}
}

func TestCounts(t *testing.T) {
	svc, _ := newService(t)

	active, inactive, err := svc.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active != 0 || inactive != 0 {
		t.Fatalf("empty store counts = %d/%d, want 0/0", active, inactive)
	}

	if _, err := svc.Register(ctx, "alice", hashA, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, "bob", hashB, ""); err != nil {
		t.Fatal(err)
	}
	if err := svc.Deactivate(ctx, "bob"); err != nil {
		t.Fatal(err)
	}

	active, inactive, err = svc.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active != 1 || inactive != 1 {
		t.Errorf("counts = %d/%d, want 1/1", active, inactive)
	}
}
