package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/credence-id/credence/internal/events"
)

var ctx = context.Background()

type failingSink struct{ err error }

func (s failingSink) Publish(context.Context, events.Event) error { return s.err }

func TestMemorySink_order(t *testing.T) {
	sink := events.NewMemorySink()

	for _, typ := range []string{
		events.TypeIdentityRegistered,
		events.TypeRoleGranted,
		events.TypeIdentityUpdated,
	} {
		if err := sink.Publish(ctx, events.New(typ, "alice", "alice", nil)); err != nil {
			t.Fatal(err)
		}
	}

	evs := sink.Events()
	if len(evs) != 3 {
		t.Fatalf("recorded %d events, want 3", len(evs))
	}
	if evs[0].Type != events.TypeIdentityRegistered || evs[2].Type != events.TypeIdentityUpdated {
		t.Error("events not in publish order")
	}
	if evs[0].Timestamp.IsZero() {
		t.Error("New should stamp the event")
	}
	if evs[0].Payload == nil {
		t.Error("nil payload should be normalised to an empty map")
	}
}

func TestMemorySink_byType(t *testing.T) {
	sink := events.NewMemorySink()

	sink.Publish(ctx, events.New(events.TypeRoleGranted, "alice", "owner", nil))
	sink.Publish(ctx, events.New(events.TypeRoleRevoked, "alice", "owner", nil))
	sink.Publish(ctx, events.New(events.TypeRoleGranted, "bob", "owner", nil))

	granted := sink.ByType(events.TypeRoleGranted)
	if len(granted) != 2 {
		t.Fatalf("got %d granted events, want 2", len(granted))
	}
	if granted[0].Key != "alice" || granted[1].Key != "bob" {
		t.Error("ByType should preserve publish order")
	}
	if got := sink.ByType(events.TypeVerificationCompleted); len(got) != 0 {
		t.Errorf("unexpected events: %v", got)
	}
}

func TestMultiSink_fanOut(t *testing.T) {
	a := events.NewMemorySink()
	b := events.NewMemorySink()
	multi := events.NewMultiSink(a, b)

	if err := multi.Publish(ctx, events.New(events.TypeIdentityRegistered, "alice", "alice", nil)); err != nil {
		t.Fatal(err)
	}
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Error("event should reach every sink")
	}
}

func TestMultiSink_firstErrorAfterAllAttempts(t *testing.T) {
	errA := errors.New("sink a down")
	errB := errors.New("sink b down")
	tail := events.NewMemorySink()
	multi := events.NewMultiSink(failingSink{errA}, failingSink{errB}, tail)

	err := multi.Publish(ctx, events.New(events.TypeIdentityRegistered, "alice", "alice", nil))
	if !errors.Is(err, errA) {
		t.Errorf("got %v, want first sink's error", err)
	}
	if len(tail.Events()) != 1 {
		t.Error("later sinks should still be attempted after a failure")
	}
}
