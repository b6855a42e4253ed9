package verification_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/events"
	"github.com/credence-id/credence/internal/ledger"
	"github.com/credence-id/credence/internal/verification"
)

var ctx = context.Background()

const boundHash ledger.Hash = "a3f1c2d4e5b6978812345678901234567890abcdef1234567890abcdef123456"

type stubVerifiers map[ledger.Principal]bool

func (s stubVerifiers) IsVerifier(_ context.Context, p ledger.Principal) (bool, error) {
	return s[p], nil
}

// stubDirectory answers both identity questions the service asks: which
// principals are active and which credential hashes are bound.
type stubDirectory struct {
	active map[ledger.Principal]bool
	bound  map[ledger.Hash]bool
}

func (s *stubDirectory) IsActive(_ context.Context, p ledger.Principal) (bool, error) {
	return s.active[p], nil
}

func (s *stubDirectory) HashIsBoundAndActive(_ context.Context, h ledger.Hash) (bool, error) {
	return s.bound[h], nil
}

func newService(t *testing.T) (*verification.Service, *events.MemorySink) {
	t.Helper()
	sink := events.NewMemorySink()
	dir := &stubDirectory{
		active: map[ledger.Principal]bool{"alice": true},
		bound:  map[ledger.Hash]bool{boundHash: true},
	}
	svc := verification.NewService(
		verification.NewMemoryStore(),
		stubVerifiers{"verifier-1": true},
		dir,
		sink,
		zap.NewNop(),
	)
	return svc, sink
}

func request(t *testing.T, svc *verification.Service) uuid.UUID {
	t.Helper()
	proof, signals := wellFormedProof()
	id, err := svc.RequestVerification(ctx, "alice", boundHash, "kyc", proof, signals)
	if err != nil {
		t.Fatalf("RequestVerification: %v", err)
	}
	return id
}

func TestRequestVerification_inactiveRequester(t *testing.T) {
	svc, _ := newService(t)
	proof, signals := wellFormedProof()
	_, err := svc.RequestVerification(ctx, "ghost", boundHash, "kyc", proof, signals)
	if !ledger.IsState(err) {
		t.Errorf("got %v, want state error", err)
	}
}

func TestRequestVerification_unboundHash(t *testing.T) {
	svc, _ := newService(t)
	proof, signals := wellFormedProof()
	_, err := svc.RequestVerification(ctx, "alice", ledger.Hash("beef"), "kyc", proof, signals)
	if !ledger.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
	if ledger.CodeOf(err) != ledger.CodeCredentialHash {
		t.Errorf("code = %q", ledger.CodeOf(err))
	}
}

func TestRequestVerification_typeRequired(t *testing.T) {
	svc, _ := newService(t)
	proof, signals := wellFormedProof()
	_, err := svc.RequestVerification(ctx, "alice", boundHash, "", proof, signals)
	if !ledger.IsValidation(err) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestRequestVerification_publishesProofShape(t *testing.T) {
	svc, sink := newService(t)

	request(t, svc)

	var badProof verification.Proof
	var signals verification.PublicSignals
	if _, err := svc.RequestVerification(ctx, "alice", "0x"+boundHash, "kyc", badProof, signals); err != nil {
		t.Fatalf("request with zero proof should still be accepted: %v", err)
	}

	evs := sink.ByType(events.TypeVerificationRequested)
	if len(evs) != 2 {
		t.Fatalf("expected 2 requested events, got %d", len(evs))
	}
	if evs[0].Payload["proof_well_formed"] != "true" {
		t.Error("first request should report a well-formed proof")
	}
	if evs[1].Payload["proof_well_formed"] != "false" {
		t.Error("zero proof should report proof_well_formed=false")
	}
}

func TestCompleteVerification_verifierGate(t *testing.T) {
	svc, _ := newService(t)
	id := request(t, svc)

	err := svc.CompleteVerification(ctx, "mallory", id, true, "")
	if !ledger.IsUnauthorized(err) {
		t.Errorf("got %v, want unauthorized", err)
	}
}

func TestCompleteVerification_exactlyOnce(t *testing.T) {
	svc, _ := newService(t)
	id := request(t, svc)

	if err := svc.CompleteVerification(ctx, "verifier-1", id, true, "result-1"); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	err := svc.CompleteVerification(ctx, "verifier-1", id, false, "result-2")
	if !ledger.IsConflict(err) {
		t.Errorf("second completion: got %v, want conflict", err)
	}
	if ledger.CodeOf(err) != ledger.CodeAlreadyProcessed {
		t.Errorf("code = %q", ledger.CodeOf(err))
	}

	req, err := svc.GetRequest(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if req.State != verification.StateCompleted {
		t.Errorf("state = %q", req.State)
	}
	if req.Verified == nil || !*req.Verified {
		t.Error("first outcome should stand")
	}
	if req.ResultRef != "result-1" {
		t.Errorf("result ref = %q, want result-1", req.ResultRef)
	}
}

func TestCompleteVerification_unknownRequest(t *testing.T) {
	svc, _ := newService(t)
	err := svc.CompleteVerification(ctx, "verifier-1", uuid.New(), true, "")
	if !ledger.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestCredentialStatus_countsOnlyVerified(t *testing.T) {
	svc, _ := newService(t)

	// Two verified completions, one rejection.
	for _, verified := range []bool{true, false, true} {
		id := request(t, svc)
		if err := svc.CompleteVerification(ctx, "verifier-1", id, verified, ""); err != nil {
			t.Fatal(err)
		}
	}

	ok, err := svc.IsCredentialVerified(ctx, boundHash)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("credential should be verified")
	}
	n, err := svc.VerificationCount(ctx, boundHash)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestCredentialStatus_unknownHashIsZero(t *testing.T) {
	svc, _ := newService(t)

	ok, err := svc.IsCredentialVerified(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("unknown hash should not error: %v", err)
	}
	if ok {
		t.Error("never-verified hash reported verified")
	}
	n, err := svc.VerificationCount(ctx, "deadbeef")
	if err != nil || n != 0 {
		t.Errorf("count = %d, err = %v", n, err)
	}
}

func TestAreCredentialsVerified_preservesOrder(t *testing.T) {
	svc, _ := newService(t)

	id := request(t, svc)
	if err := svc.CompleteVerification(ctx, "verifier-1", id, true, ""); err != nil {
		t.Fatal(err)
	}

	got, err := svc.AreCredentialsVerified(ctx, []ledger.Hash{"deadbeef", boundHash, "cafe"})
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
