package reputation_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/events"
	"github.com/credence-id/credence/internal/ledger"
	"github.com/credence-id/credence/internal/reputation"
)

var ctx = context.Background()

// stubIssuers allows exactly the principals in the set.
type stubIssuers map[ledger.Principal]bool

func (s stubIssuers) IsIssuer(_ context.Context, p ledger.Principal) (bool, error) {
	return s[p], nil
}

// stubTargets reports the principals in the set as actively registered.
type stubTargets map[ledger.Principal]bool

func (s stubTargets) IsActive(_ context.Context, p ledger.Principal) (bool, error) {
	return s[p], nil
}

func newService(t *testing.T) (*reputation.Service, *events.MemorySink) {
	t.Helper()
	sink := events.NewMemorySink()
	svc := reputation.NewService(
		reputation.NewMemoryStore(),
		stubIssuers{"issuer-1": true},
		stubTargets{"alice": true, "bob": true},
		sink,
		zap.NewNop(),
	)
	return svc, sink
}

func issue(t *testing.T, svc *reputation.Service, target ledger.Principal, delta int64) {
	t.Helper()
	if _, err := svc.IssueEvent(ctx, "issuer-1", target, delta, "attestation", "", "proof-1"); err != nil {
		t.Fatalf("IssueEvent(%d): %v", delta, err)
	}
}

func TestIssueEvent_unauthorizedIssuer(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.IssueEvent(ctx, "mallory", "alice", 10, "attestation", "", "proof-1")
	if !ledger.IsUnauthorized(err) {
		t.Errorf("got %v, want unauthorized", err)
	}
}

func TestIssueEvent_unregisteredTarget(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.IssueEvent(ctx, "issuer-1", "ghost", 10, "attestation", "", "proof-1")
	if !ledger.IsState(err) {
		t.Errorf("got %v, want state error", err)
	}
	if ledger.CodeOf(err) != ledger.CodeTargetNotRegistered {
		t.Errorf("code = %q, want target_not_registered", ledger.CodeOf(err))
	}
}

func TestIssueEvent_deltaValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.IssueEvent(ctx, "issuer-1", "alice", 0, "attestation", "", "proof-1")
	if ledger.CodeOf(err) != ledger.CodeZeroDelta {
		t.Errorf("zero delta: got %v", err)
	}

	for _, d := range []int64{51, -51, 1000} {
		_, err := svc.IssueEvent(ctx, "issuer-1", "alice", d, "attestation", "", "proof-1")
		if ledger.CodeOf(err) != ledger.CodeDeltaOutOfBounds {
			t.Errorf("delta %d: got %v, want delta_out_of_bounds", d, err)
		}
	}

	// Both bounds are themselves legal.
	for _, d := range []int64{50, -50} {
		if _, err := svc.IssueEvent(ctx, "issuer-1", "alice", d, "attestation", "", "proof-1"); err != nil {
			t.Errorf("delta %d should be accepted: %v", d, err)
		}
	}
}

func TestIssueEvent_requiredFields(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.IssueEvent(ctx, "issuer-1", "alice", 10, "", "", "proof-1")
	if ledger.CodeOf(err) != ledger.CodeEmptyField {
		t.Errorf("empty event type: got %v", err)
	}
	_, err = svc.IssueEvent(ctx, "issuer-1", "alice", 10, "attestation", "", "")
	if ledger.CodeOf(err) != ledger.CodeEmptyField {
		t.Errorf("empty proof ref: got %v", err)
	}
}

func TestIssueEvent_accumulatesScoreAndLevel(t *testing.T) {
	svc, _ := newService(t)

	deltas := []int64{50, 50, 50, 50, 50, 50}
	wantScores := []int64{50, 100, 150, 200, 250, 300}
	wantLevels := []int{1, 2, 2, 2, 2, 3}

	for i, d := range deltas {
		issue(t, svc, "alice", d)
		acct, err := svc.GetAccount(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if acct.TotalScore != wantScores[i] {
			t.Errorf("after event %d: score = %d, want %d", i, acct.TotalScore, wantScores[i])
		}
		if acct.TrustLevel != wantLevels[i] {
			t.Errorf("after event %d: level = %d, want %d", i, acct.TrustLevel, wantLevels[i])
		}
	}
}

func TestIssueEvent_scoreGoesNegative(t *testing.T) {
	svc, _ := newService(t)

	issue(t, svc, "alice", 10)
	issue(t, svc, "alice", -50)

	acct, err := svc.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if acct.TotalScore != -40 {
		t.Errorf("score = %d, want -40", acct.TotalScore)
	}
	if acct.TrustLevel != 1 {
		t.Errorf("negative score should clamp to level 1, got %d", acct.TrustLevel)
	}
	if acct.PositiveCount != 1 || acct.NegativeCount != 1 {
		t.Errorf("counts = +%d/-%d, want +1/-1", acct.PositiveCount, acct.NegativeCount)
	}
}

func TestIssueEvent_trustLevelEventOnlyOnChange(t *testing.T) {
	svc, sink := newService(t)

	issue(t, svc, "alice", 40) // 40, level 1 — no change event
	issue(t, svc, "alice", 40) // 80, level 1 — no change event
	issue(t, svc, "alice", 40) // 120, level 2 — change event

	if n := len(sink.ByType(events.TypeReputationEventIssued)); n != 3 {
		t.Errorf("expected 3 ReputationEventIssued events, got %d", n)
	}
	levelEvents := sink.ByType(events.TypeTrustLevelUpdated)
	if len(levelEvents) != 1 {
		t.Fatalf("expected 1 TrustLevelUpdated event, got %d", len(levelEvents))
	}
	if got := levelEvents[0].Payload["trust_level"]; got != "2" {
		t.Errorf("trust_level payload = %q, want 2", got)
	}
	if got := levelEvents[0].Payload["previous_level"]; got != "1" {
		t.Errorf("previous_level payload = %q, want 1", got)
	}
}

func TestGetEvents_historyOrder(t *testing.T) {
	svc, _ := newService(t)

	issue(t, svc, "alice", 10)
	issue(t, svc, "alice", -5)
	issue(t, svc, "bob", 20)

	evs, err := svc.GetEvents(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events for alice, got %d", len(evs))
	}
	for _, ev := range evs {
		if ev.Target != "alice" {
			t.Errorf("event target = %q, want alice", ev.Target)
		}
	}

	got, err := svc.GetEvent(ctx, evs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != evs[0].ID {
		t.Error("GetEvent returned a different event")
	}
}

func TestGetAccount_unknown(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.GetAccount(ctx, "ghost")
	if !ledger.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestIssueEvent_concurrentDeliveryOrder(t *testing.T) {
	svc, sink := newService(t)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.IssueEvent(ctx, "issuer-1", "alice", 1, "attestation", "", "proof-1"); err != nil {
				t.Errorf("IssueEvent: %v", err)
			}
		}()
	}
	wg.Wait()

	issued := sink.ByType(events.TypeReputationEventIssued)
	if len(issued) != n {
		t.Fatalf("issued events = %d, want %d", len(issued), n)
	}
	var prev int64
	for i, ev := range issued {
		score, err := strconv.ParseInt(ev.Payload["total_score"], 10, 64)
		if err != nil {
			t.Fatalf("event %d: bad total_score %q", i, ev.Payload["total_score"])
		}
		if score <= prev {
			t.Fatalf("event %d: total_score %d delivered after %d", i, score, prev)
		}
		prev = score
	}
	if prev != n {
		t.Errorf("final total_score = %d, want %d", prev, n)
	}
}
