package access

import (
	"context"
	"fmt"
	"time"

	"github.com/credence-id/credence/internal/events"
	"github.com/credence-id/credence/internal/ledger"
	"go.uber.org/zap"
)

// Service enforces owner-only grant management and answers role queries.
// The owner principal is implicitly both issuer and verifier.
type Service struct {
	store Store
	owner ledger.Principal
	sink  events.Sink

	// trustedIssuers maps a verification type to the issuer principals an
	// operator has configured for it. The verification workflow never
	// consults this map; it is carried configuration only.
	trustedIssuers map[string][]ledger.Principal

	// principals serializes the read-modify-write and the publish per
	// grantee, so the sink sees a principal's grant events in commit order.
	principals ledger.KeyMutex

	logger *zap.Logger
}

// NewService creates an access Service governed by the given owner principal.
func NewService(store Store, owner ledger.Principal, sink events.Sink, logger *zap.Logger) *Service {
	return &Service{
		store:          store,
		owner:          owner,
		sink:           sink,
		trustedIssuers: make(map[string][]ledger.Principal),
		logger:         logger,
	}
}

// SetTrustedIssuers replaces the per-verification-type trusted issuer
// configuration. No state-changing path reads this; see TrustedIssuers.
func (s *Service) SetTrustedIssuers(cfg map[string][]ledger.Principal) {
	s.trustedIssuers = cfg
}

// TrustedIssuers returns the configured issuer allowlist for a verification
// type. Present for operator inspection only — Grant/IsIssuer/IsVerifier and
// the verification workflow do not enforce it.
func (s *Service) TrustedIssuers(verificationType string) []ledger.Principal {
	return s.trustedIssuers[verificationType]
}

// Owner returns the governing owner principal.
func (s *Service) Owner() ledger.Principal { return s.owner }

// Grant adds principal to the allowlist for role. Owner-only. Granting an
// already-active role is a no-op success; RoleGranted is emitted only when
// the grant actually changed state.
func (s *Service) Grant(ctx context.Context, actor ledger.Principal, role Role, principal ledger.Principal) error {
	if err := s.checkGrantArgs(actor, role, principal); err != nil {
		return err
	}

	s.principals.Lock(string(principal))
	defer s.principals.Unlock(string(principal))

	existing, err := s.store.Get(ctx, principal, role)
	if err == nil && existing.Active {
		return nil // idempotent
	}
	if err != nil && !ledger.IsNotFound(err) {
		return fmt.Errorf("load grant: %w", err)
	}

	g := &Grant{
		Principal: principal,
		Role:      role,
		Active:    true,
		GrantedBy: actor,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(ctx, g); err != nil {
		return fmt.Errorf("store grant: %w", err)
	}

	s.logger.Info("role granted",
		zap.String("principal", string(principal)),
		zap.String("role", string(role)),
	)
	s.publish(ctx, events.TypeRoleGranted, principal, actor, role)
	return nil
}

// Revoke removes principal from the allowlist for role. Owner-only and
// idempotent; RoleRevoked is emitted only when an active grant was revoked.
func (s *Service) Revoke(ctx context.Context, actor ledger.Principal, role Role, principal ledger.Principal) error {
	if err := s.checkGrantArgs(actor, role, principal); err != nil {
		return err
	}

	s.principals.Lock(string(principal))
	defer s.principals.Unlock(string(principal))

	existing, err := s.store.Get(ctx, principal, role)
	if ledger.IsNotFound(err) {
		return nil // never granted; revoke is a no-op
	}
	if err != nil {
		return fmt.Errorf("load grant: %w", err)
	}
	if !existing.Active {
		return nil
	}

	existing.Active = false
	existing.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, existing); err != nil {
		return fmt.Errorf("store grant: %w", err)
	}

	s.logger.Info("role revoked",
		zap.String("principal", string(principal)),
		zap.String("role", string(role)),
	)
	s.publish(ctx, events.TypeRoleRevoked, principal, actor, role)
	return nil
}

// IsIssuer reports whether principal may issue reputation events.
func (s *Service) IsIssuer(ctx context.Context, principal ledger.Principal) (bool, error) {
	return s.hasRole(ctx, principal, RoleIssuer)
}

// IsVerifier reports whether principal may complete verification requests.
func (s *Service) IsVerifier(ctx context.Context, principal ledger.Principal) (bool, error) {
	return s.hasRole(ctx, principal, RoleVerifier)
}

// Grants returns all grant rows for a principal.
func (s *Service) Grants(ctx context.Context, principal ledger.Principal) ([]*Grant, error) {
	return s.store.List(ctx, principal)
}

func (s *Service) hasRole(ctx context.Context, principal ledger.Principal, role Role) (bool, error) {
	if principal == s.owner {
		return true, nil
	}
	g, err := s.store.Get(ctx, principal, role)
	if ledger.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load grant: %w", err)
	}
	return g.Active, nil
}

func (s *Service) checkGrantArgs(actor ledger.Principal, role Role, principal ledger.Principal) error {
	if actor != s.owner {
		return ledger.Errf(ledger.KindUnauthorized, ledger.CodeNotOwner,
			"only the ledger owner may manage role grants")
	}
	if !role.Valid() {
		return ledger.Errf(ledger.KindValidation, ledger.CodeUnknownRole,
			"unknown role %q", role)
	}
	if principal.IsZero() {
		return ledger.Errf(ledger.KindValidation, ledger.CodeEmptyField,
			"principal is required")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, principal, actor ledger.Principal, role Role) {
	if s.sink == nil {
		return
	}
	ev := events.New(eventType, string(principal), string(actor), map[string]string{
		"role": string(role),
	})
	if err := s.sink.Publish(ctx, ev); err != nil {
		s.logger.Error("event publish failed (non-fatal)",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
