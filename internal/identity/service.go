package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/events"
	"github.com/credence-id/credence/internal/ledger"
)

// Service contains the identity lifecycle logic. All uniqueness and
// atomicity guarantees live in the Store; the service validates input,
// stamps new rows, and publishes domain events after a successful write.
type Service struct {
	store  Store
	sink   events.Sink
	logger *zap.Logger

	// owners serializes write+publish per owner, so the sink sees an
	// owner's lifecycle events in commit order.
	owners ledger.KeyMutex
}

// NewService creates an identity Service. sink may be nil to disable events.
func NewService(store Store, sink events.Sink, logger *zap.Logger) *Service {
	return &Service{store: store, sink: sink, logger: logger}
}

// Register creates a new identity binding owner to credentialHash.
func (s *Service) Register(ctx context.Context, owner ledger.Principal, credentialHash ledger.Hash, metadataRef string) (uuid.UUID, error) {
	if owner.IsZero() {
		return uuid.Nil, ledger.Errf(ledger.KindValidation, ledger.CodeEmptyField, "owner principal is required")
	}
	hash := credentialHash.Normalize()
	if hash.IsZero() {
		return uuid.Nil, ledger.Errf(ledger.KindValidation, ledger.CodeInvalidHash,
			"credential hash must not be the zero value")
	}

	now := time.Now().UTC()
	id := &Identity{
		ID:             uuid.New(),
		Owner:          owner,
		CredentialHash: hash,
		MetadataRef:    metadataRef,
		CreatedAt:      now,
		UpdatedAt:      now,
		Active:         true,
	}
	s.owners.Lock(string(owner))
	defer s.owners.Unlock(string(owner))

	if err := s.store.Insert(ctx, id); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("identity registered",
		zap.String("id", id.ID.String()),
		zap.String("owner", string(owner)),
	)
	s.publish(ctx, events.TypeIdentityRegistered, owner, map[string]string{
		"identity_id":     id.ID.String(),
		"credential_hash": string(hash),
		"metadata_ref":    metadataRef,
	})
	return id.ID, nil
}

// Update rotates the identity's credential hash and metadata ref. The old
// hash binding is released and the new one claimed in a single atomic step.
func (s *Service) Update(ctx context.Context, owner ledger.Principal, newHash ledger.Hash, newMetadataRef string) error {
	hash := newHash.Normalize()
	if hash.IsZero() {
		return ledger.Errf(ledger.KindValidation, ledger.CodeInvalidHash,
			"credential hash must not be the zero value")
	}

	s.owners.Lock(string(owner))
	defer s.owners.Unlock(string(owner))

	updated, err := s.store.SwapHash(ctx, owner, hash, newMetadataRef)
	if err != nil {
		return err
	}

	s.logger.Info("identity updated",
		zap.String("id", updated.ID.String()),
		zap.String("owner", string(owner)),
	)
	s.publish(ctx, events.TypeIdentityUpdated, owner, map[string]string{
		"identity_id":     updated.ID.String(),
		"credential_hash": string(hash),
		"metadata_ref":    newMetadataRef,
	})
	return nil
}

// Deactivate soft-deletes the identity. The hash and owner bindings remain,
// so a deactivated credential hash can never be registered again.
func (s *Service) Deactivate(ctx context.Context, owner ledger.Principal) error {
	s.owners.Lock(string(owner))
	defer s.owners.Unlock(string(owner))

	updated, err := s.store.SetInactive(ctx, owner)
	if err != nil {
		return err
	}

	s.logger.Info("identity deactivated",
		zap.String("id", updated.ID.String()),
		zap.String("owner", string(owner)),
	)
	s.publish(ctx, events.TypeIdentityDeactivated, owner, map[string]string{
		"identity_id": updated.ID.String(),
	})
	return nil
}

// Counts returns the number of active and inactive identities.
func (s *Service) Counts(ctx context.Context) (active, inactive int64, err error) {
	return s.store.Counts(ctx)
}

// GetByOwner returns the identity bound to owner, active or not.
func (s *Service) GetByOwner(ctx context.Context, owner ledger.Principal) (*Identity, error) {
	return s.store.GetByOwner(ctx, owner)
}

// GetByHash returns the identity bound to hash, active or not.
func (s *Service) GetByHash(ctx context.Context, hash ledger.Hash) (*Identity, error) {
	return s.store.GetByHash(ctx, hash.Normalize())
}

// IsActive reports whether owner has an active identity. An unknown owner
// is simply inactive, not an error.
func (s *Service) IsActive(ctx context.Context, owner ledger.Principal) (bool, error) {
	id, err := s.store.GetByOwner(ctx, owner)
	if ledger.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id.Active, nil
}

// HashIsBoundAndActive reports whether hash is bound to an active identity.
func (s *Service) HashIsBoundAndActive(ctx context.Context, hash ledger.Hash) (bool, error) {
	id, err := s.store.GetByHash(ctx, hash.Normalize())
	if ledger.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id.Active, nil
}

func (s *Service) publish(ctx context.Context, eventType string, owner ledger.Principal, payload map[string]string) {
	if s.sink == nil {
		return
	}
	ev := events.New(eventType, string(owner), string(owner), payload)
	if err := s.sink.Publish(ctx, ev); err != nil {
		s.logger.Error("event publish failed (non-fatal)",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
