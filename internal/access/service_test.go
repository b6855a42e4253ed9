package access_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/access"
	"github.com/credence-id/credence/internal/events"
	"github.com/credence-id/credence/internal/ledger"
)

var ctx = context.Background()

const owner = ledger.Principal("credence-owner")

func newService(t *testing.T) (*access.Service, *events.MemorySink) {
	t.Helper()
	sink := events.NewMemorySink()
	svc := access.NewService(access.NewMemoryStore(), owner, sink, zap.NewNop())
	return svc, sink
}

func TestGrant_ownerOnly(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Grant(ctx, "mallory", access.RoleIssuer, "alice")
	if !ledger.IsUnauthorized(err) {
		t.Fatalf("non-owner grant: got %v, want unauthorized", err)
	}

	if err := svc.Grant(ctx, owner, access.RoleIssuer, "alice"); err != nil {
		t.Fatalf("owner grant failed: %v", err)
	}

	ok, err := svc.IsIssuer(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("alice should be an issuer after grant")
	}
}

func TestGrant_unknownRole(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Grant(ctx, owner, access.Role("admin"), "alice")
	if !ledger.IsValidation(err) {
		t.Errorf("unknown role: got %v, want validation error", err)
	}
}

func TestGrant_idempotent(t *testing.T) {
	svc, sink := newService(t)

	if err := svc.Grant(ctx, owner, access.RoleVerifier, "bob"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Grant(ctx, owner, access.RoleVerifier, "bob"); err != nil {
		t.Fatalf("repeat grant should be a no-op success: %v", err)
	}

	if n := len(sink.ByType(events.TypeRoleGranted)); n != 1 {
		t.Errorf("expected 1 RoleGranted event, got %d", n)
	}
}

func TestRevoke_idempotent(t *testing.T) {
	svc, sink := newService(t)

	// Revoking a never-granted role is a no-op.
	if err := svc.Revoke(ctx, owner, access.RoleIssuer, "carol"); err != nil {
		t.Fatalf("revoke of absent grant: %v", err)
	}
	if n := len(sink.ByType(events.TypeRoleRevoked)); n != 0 {
		t.Fatalf("no-op revoke emitted %d events", n)
	}

	if err := svc.Grant(ctx, owner, access.RoleIssuer, "carol"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Revoke(ctx, owner, access.RoleIssuer, "carol"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Revoke(ctx, owner, access.RoleIssuer, "carol"); err != nil {
		t.Fatalf("second revoke should be a no-op success: %v", err)
	}

	ok, err := svc.IsIssuer(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("carol should not be an issuer after revoke")
	}
	if n := len(sink.ByType(events.TypeRoleRevoked)); n != 1 {
		t.Errorf("expected 1 RoleRevoked event, got %d", n)
	}
}

func TestRoles_independent(t *testing.T) {
	svc, _ := newService(t)

	if err := svc.Grant(ctx, owner, access.RoleIssuer, "dave"); err != nil {
		t.Fatal(err)
	}

	issuer, _ := svc.IsIssuer(ctx, "dave")
	verifier, _ := svc.IsVerifier(ctx, "dave")
	if !issuer {
		t.Error("dave should be an issuer")
	}
	if verifier {
		t.Error("issuer grant must not imply the verifier role")
	}
}

func TestOwner_implicitRoles(t *testing.T) {
	svc, _ := newService(t)

	issuer, _ := svc.IsIssuer(ctx, owner)
	verifier, _ := svc.IsVerifier(ctx, owner)
	if !issuer || !verifier {
		t.Error("owner should hold both roles implicitly")
	}
}

func TestGrants_historySurvivesRevoke(t *testing.T) {
	svc, _ := newService(t)

	_ = svc.Grant(ctx, owner, access.RoleIssuer, "erin")
	_ = svc.Grant(ctx, owner, access.RoleVerifier, "erin")
	_ = svc.Revoke(ctx, owner, access.RoleIssuer, "erin")

	grants, err := svc.Grants(ctx, "erin")
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grant rows, got %d", len(grants))
	}
	for _, g := range grants {
		switch g.Role {
		case access.RoleIssuer:
			if g.Active {
				t.Error("revoked issuer grant should be inactive")
			}
		case access.RoleVerifier:
			if !g.Active {
				t.Error("verifier grant should still be active")
			}
		}
	}
}

func TestTrustedIssuers_carriedButNotEnforced(t *testing.T) {
	svc, _ := newService(t)
	svc.SetTrustedIssuers(map[string][]ledger.Principal{
		"kyc": {"acme"},
	})

	if got := svc.TrustedIssuers("kyc"); len(got) != 1 || got[0] != "acme" {
		t.Errorf("TrustedIssuers(kyc) = %v", got)
	}

	// Configuration alone grants nothing.
	ok, err := svc.IsIssuer(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("trusted issuer config must not grant the issuer role")
	}
}
