package reputation

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

// IssuerChecker answers whether a principal may issue reputation events.
// *access.Service satisfies this interface.
type IssuerChecker interface {
	IsIssuer(ctx context.Context, principal ledger.Principal) (bool, error)
}

// TargetChecker answers whether a principal has an active identity.
// *identity.Service satisfies this interface.
type TargetChecker interface {
	IsActive(ctx context.Context, principal ledger.Principal) (bool, error)
}

// Service contains the reputation issuing logic: role gating, target gating,
// delta validation, and event publication.
type Service struct {
	store      Store
	issuers    IssuerChecker
	identities TargetChecker
	sink       events.Sink
	logger     *zap.Logger

	// targets serializes write+publish per target principal, so the sink
	// sees a target's events in commit order.
	targets ledger.KeyMutex
}

// NewService creates a reputation Service. sink may be nil to disable events.
func NewService(store Store, issuers IssuerChecker, identities TargetChecker, sink events.Sink, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		issuers:    issuers,
		identities: identities,
		sink:       sink,
		logger:     logger,
	}
}

// IssueEvent appends a reputation event for target and updates its account.
// TrustLevelUpdated is published only when the applied delta actually moved
// the account across a threshold.
func (s *Service) IssueEvent(ctx context.Context, issuer, target ledger.Principal, delta int64, eventType, description, proofRef string) (uuid.UUID, error) {
	ok, err := s.issuers.IsIssuer(ctx, issuer)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check issuer role: %w", err)
	}
	if !ok {
		return uuid.Nil, ledger.Errf(ledger.KindUnauthorized, ledger.CodeNotIssuer,
			"%s is not an authorized issuer", issuer)
	}

	active, err := s.identities.IsActive(ctx, target)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check target identity: %w", err)
	}
	if !active {
		return uuid.Nil, ledger.Errf(ledger.KindState, ledger.CodeTargetNotRegistered,
			"target %s has no active identity", target)
	}

	if delta == 0 {
		return uuid.Nil, ledger.Errf(ledger.KindValidation, ledger.CodeZeroDelta,
			"delta must not be zero")
	}
	if delta < MinDelta || delta > MaxDelta {
		return uuid.Nil, ledger.Errf(ledger.KindValidation, ledger.CodeDeltaOutOfBounds,
			"delta %d outside [%d, %d]", delta, MinDelta, MaxDelta)
	}
	if eventType == "" {
		return uuid.Nil, ledger.Errf(ledger.KindValidation, ledger.CodeEmptyField,
			"event type is required")
	}
	if proofRef == "" {
		return uuid.Nil, ledger.Errf(ledger.KindValidation, ledger.CodeEmptyField,
			"proof ref is required")
	}

	ev := &Event{
		ID:          uuid.New(),
		Target:      target,
		Issuer:      issuer,
		Delta:       delta,
		EventType:   eventType,
		Description: description,
		ProofRef:    proofRef,
		Timestamp:   time.Now().UTC(),
	}

	s.targets.Lock(string(target))
	defer s.targets.Unlock(string(target))

	acct, prevLevel, err := s.store.Apply(ctx, ev)
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("reputation event issued",
		zap.String("event_id", ev.ID.String()),
		zap.String("target", string(target)),
		zap.Int64("delta", delta),
		zap.Int64("total_score", acct.TotalScore),
	)

	s.publish(ctx, events.TypeReputationEventIssued, target, issuer, map[string]string{
		"event_id":    ev.ID.String(),
		"delta":       strconv.FormatInt(delta, 10),
		"event_type":  eventType,
		"proof_ref":   proofRef,
		"total_score": strconv.FormatInt(acct.TotalScore, 10),
	})
	if acct.TrustLevel != prevLevel {
		s.publish(ctx, events.TypeTrustLevelUpdated, target, issuer, map[string]string{
			"previous_level": strconv.Itoa(prevLevel),
			"trust_level":    strconv.Itoa(acct.TrustLevel),
			"total_score":    strconv.FormatInt(acct.TotalScore, 10),
		})
	}
	return ev.ID, nil
}

// GetAccount returns the reputation account for principal.
func (s *Service) GetAccount(ctx context.Context, principal ledger.Principal) (*Account, error) {
	return s.store.GetAccount(ctx, principal)
}

// GetEvents returns the events targeting principal, most recent first.
func (s *Service) GetEvents(ctx context.Context, principal ledger.Principal) ([]*Event, error) {
	return s.store.ListEvents(ctx, principal)
}

// GetEvent returns a single reputation event by id.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.store.GetEvent(ctx, id)
}

func (s *Service) publish(ctx context.Context, eventType string, target, issuer ledger.Principal, payload map[string]string) {
	if s.sink == nil {
		return
	}
	ev := events.New(eventType, string(target), string(issuer), payload)
	if err := s.sink.Publish(ctx, ev); err != nil {
		s.logger.Error("event publish failed (non-fatal)",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
