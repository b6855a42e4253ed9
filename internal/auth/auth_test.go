package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/credence-id/credence/internal/auth"
)

var ctx = context.Background()

func TestTokenIssuer_roundtrip(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("test-secret"), "https://ledger.example", time.Minute)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatal(err)
	}
	principal, err := issuer.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if principal != "alice" {
		t.Errorf("principal = %q, want alice", principal)
	}
}

func TestTokenIssuer_wrongSecret(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("secret-a"), "https://ledger.example", time.Minute)
	other := auth.NewTokenIssuer([]byte("secret-b"), "https://ledger.example", time.Minute)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Error("token signed with a different secret should not verify")
	}
}

func TestTokenIssuer_wrongIssuer(t *testing.T) {
	a := auth.NewTokenIssuer([]byte("shared"), "https://a.example", time.Minute)
	b := auth.NewTokenIssuer([]byte("shared"), "https://b.example", time.Minute)

	token, err := a.Issue("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("token with mismatched iss claim should not verify")
	}
}

func TestTokenIssuer_expired(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("secret"), "https://ledger.example", -time.Minute)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Error("expired token should not verify")
	}
}

func TestTokenIssuer_garbage(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("secret"), "https://ledger.example", time.Minute)
	if _, err := issuer.Verify("not.a.jwt"); err == nil {
		t.Error("garbage token should not verify")
	}
}

func TestCredentialStore(t *testing.T) {
	store := auth.NewCredentialStore()

	if err := store.Register(ctx, "alice", "correct horse battery"); err != nil {
		t.Fatal(err)
	}
	if err := store.Authenticate(ctx, "alice", "correct horse battery"); err != nil {
		t.Errorf("valid login rejected: %v", err)
	}

	// Wrong secret and unknown principal fail identically.
	err := store.Authenticate(ctx, "alice", "wrong")
	if !errors.Is(err, auth.ErrBadCredentials) {
		t.Errorf("wrong secret: got %v", err)
	}
	err = store.Authenticate(ctx, "nobody", "anything")
	if !errors.Is(err, auth.ErrBadCredentials) {
		t.Errorf("unknown principal: got %v", err)
	}
}

func TestCredentialStore_rotation(t *testing.T) {
	store := auth.NewCredentialStore()

	if err := store.Register(ctx, "alice", "old secret value"); err != nil {
		t.Fatal(err)
	}
	if err := store.Register(ctx, "alice", "new secret value"); err != nil {
		t.Fatal(err)
	}
	if err := store.Authenticate(ctx, "alice", "old secret value"); !errors.Is(err, auth.ErrBadCredentials) {
		t.Error("old secret should stop working after rotation")
	}
	if err := store.Authenticate(ctx, "alice", "new secret value"); err != nil {
		t.Errorf("new secret rejected: %v", err)
	}
}

func TestCredentialStore_requiredFields(t *testing.T) {
	store := auth.NewCredentialStore()
	if err := store.Register(ctx, "", "secret"); err == nil {
		t.Error("empty principal should be rejected")
	}
	if err := store.Register(ctx, "alice", ""); err == nil {
		t.Error("empty secret should be rejected")
	}
}
