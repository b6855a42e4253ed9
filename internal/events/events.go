// Package events defines the domain events published by the ledger and the
// Sink interface external collaborators (audit, notifications, metrics)
// consume them through. Publication is synchronous and happens inside the
// mutation's critical section, so a sink observes events for a given key in
// the order the mutations committed.
package events

import (
	"context"
	"time"
)

// Event types published by the ledger.
const (
	TypeIdentityRegistered    = "identity.registered"
	TypeIdentityUpdated       = "identity.updated"
	TypeIdentityDeactivated   = "identity.deactivated"
	TypeReputationEventIssued = "reputation.event_issued"
	TypeTrustLevelUpdated     = "reputation.trust_level_updated"
	TypeVerificationRequested = "verification.requested"
	TypeVerificationCompleted = "verification.completed"
	TypeRoleGranted           = "access.role_granted"
	TypeRoleRevoked           = "access.role_revoked"
)

// Event is a single domain event. Key is the entity key the event is ordered
// by (owner principal, target principal, credential hash, or request id);
// Actor is the principal whose operation produced it.
type Event struct {
	Type      string            `json:"type"`
	Key       string            `json:"key"`
	Actor     string            `json:"actor"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Sink receives published events. Delivery is at-least-once: a sink error is
// surfaced to the operator (logged) but never rolls back the mutation that
// produced the event.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// New builds an Event stamped with the current UTC time.
func New(eventType, key, actor string, payload map[string]string) Event {
	if payload == nil {
		payload = map[string]string{}
	}
	return Event{
		Type:      eventType,
		Key:       key,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
