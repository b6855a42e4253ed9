package verification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/events"
	"github.com/credence-id/credence/internal/ledger"
)

// VerifierChecker answers whether a principal may complete verification
// requests. *access.Service satisfies this interface.
type VerifierChecker interface {
	IsVerifier(ctx context.Context, principal ledger.Principal) (bool, error)
}

// CredentialDirectory answers the two identity queries the workflow gates
// on. *identity.Service satisfies this interface.
type CredentialDirectory interface {
	IsActive(ctx context.Context, principal ledger.Principal) (bool, error)
	HashIsBoundAndActive(ctx context.Context, hash ledger.Hash) (bool, error)
}

// Service contains the verification workflow logic.
type Service struct {
	store      Store
	verifiers  VerifierChecker
	identities CredentialDirectory
	sink       events.Sink
	logger     *zap.Logger

	// keys serializes write+publish per event key (credential hash for
	// requests, request id for completions), so the sink sees a key's
	// events in commit order.
	keys ledger.KeyMutex
}

// NewService creates a verification Service. sink may be nil to disable events.
func NewService(store Store, verifiers VerifierChecker, identities CredentialDirectory, sink events.Sink, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		verifiers:  verifiers,
		identities: identities,
		sink:       sink,
		logger:     logger,
	}
}

// RequestVerification creates a pending verification request for
// credentialHash. The requester must hold an active identity and the hash
// must be bound to an active identity. Pending requests have no expiry.
func (s *Service) RequestVerification(ctx context.Context, requester ledger.Principal, credentialHash ledger.Hash, verificationType string, proof Proof, signals PublicSignals) (uuid.UUID, error) {
	active, err := s.identities.IsActive(ctx, requester)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check requester identity: %w", err)
	}
	if !active {
		return uuid.Nil, ledger.Errf(ledger.KindState, ledger.CodeTargetNotRegistered,
			"requester %s has no active identity", requester)
	}

	hash := credentialHash.Normalize()
	bound, err := s.identities.HashIsBoundAndActive(ctx, hash)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check credential hash: %w", err)
	}
	if !bound {
		return uuid.Nil, ledger.Errf(ledger.KindNotFound, ledger.CodeCredentialHash,
			"credential hash is not bound to an active identity")
	}

	if verificationType == "" {
		return uuid.Nil, ledger.Errf(ledger.KindValidation, ledger.CodeEmptyField,
			"verification type is required")
	}

	req := &Request{
		ID:             uuid.New(),
		Requester:      requester,
		CredentialHash: hash,
		Type:           verificationType,
		Proof:          proof,
		PublicSignals:  signals,
		State:          StatePending,
		CreatedAt:      time.Now().UTC(),
	}
	s.keys.Lock(string(hash))
	defer s.keys.Unlock(string(hash))

	if err := s.store.Create(ctx, req); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("verification requested",
		zap.String("request_id", req.ID.String()),
		zap.String("requester", string(requester)),
		zap.String("type", verificationType),
	)
	s.publish(ctx, events.TypeVerificationRequested, string(hash), requester, map[string]string{
		"request_id":        req.ID.String(),
		"verification_type": verificationType,
		"proof_well_formed": strconv.FormatBool(CheckProofShape(proof, signals)),
	})
	return req.ID, nil
}

// CompleteVerification transitions a pending request to completed, exactly
// once. When verified is true, the credential hash is marked verified and
// its counter incremented in the same atomic unit.
func (s *Service) CompleteVerification(ctx context.Context, verifier ledger.Principal, requestID uuid.UUID, verified bool, resultRef string) error {
	ok, err := s.verifiers.IsVerifier(ctx, verifier)
	if err != nil {
		return fmt.Errorf("check verifier role: %w", err)
	}
	if !ok {
		return ledger.Errf(ledger.KindUnauthorized, ledger.CodeNotVerifier,
			"%s is not an authorized verifier", verifier)
	}

	s.keys.Lock(requestID.String())
	defer s.keys.Unlock(requestID.String())

	req, err := s.store.Complete(ctx, requestID, verified, resultRef, time.Now().UTC())
	if err != nil {
		return err
	}

	s.logger.Info("verification completed",
		zap.String("request_id", requestID.String()),
		zap.Bool("verified", verified),
	)
	s.publish(ctx, events.TypeVerificationCompleted, requestID.String(), verifier, map[string]string{
		"credential_hash":   string(req.CredentialHash),
		"verification_type": req.Type,
		"verified":          strconv.FormatBool(verified),
		"result_ref":        resultRef,
	})
	return nil
}

// GetRequest returns a verification request by id.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.store.Get(ctx, id)
}

// IsCredentialVerified reports whether hash has at least one
// completed-and-verified request.
func (s *Service) IsCredentialVerified(ctx context.Context, hash ledger.Hash) (bool, error) {
	st, err := s.store.Status(ctx, hash.Normalize())
	if err != nil {
		return false, err
	}
	return st.Verified, nil
}

// VerificationCount returns how many completed-and-verified requests have
// touched hash.
func (s *Service) VerificationCount(ctx context.Context, hash ledger.Hash) (uint64, error) {
	st, err := s.store.Status(ctx, hash.Normalize())
	if err != nil {
		return 0, err
	}
	return st.Count, nil
}

// AreCredentialsVerified is the batch variant of IsCredentialVerified:
// index i of the result corresponds to hashes[i].
func (s *Service) AreCredentialsVerified(ctx context.Context, hashes []ledger.Hash) ([]bool, error) {
	out := make([]bool, len(hashes))
	for i, h := range hashes {
		v, err := s.IsCredentialVerified(ctx, h)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, eventType, key string, actor ledger.Principal, payload map[string]string) {
	if s.sink == nil {
		return
	}
	ev := events.New(eventType, key, string(actor), payload)
	if err := s.sink.Publish(ctx, ev); err != nil {
		s.logger.Error("event publish failed (non-fatal)",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
