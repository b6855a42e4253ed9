package anomaly_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/credence-id/credence/internal/anomaly"
	"github.com/credence-id/credence/internal/ledger"
	"github.com/credence-id/credence/internal/reputation"
)

var ctx = context.Background()

func event(issuer ledger.Principal, delta int64, at time.Time) *reputation.Event {
	return &reputation.Event{
		ID:        uuid.New(),
		Target:    "alice",
		Issuer:    issuer,
		Delta:     delta,
		EventType: "attestation",
		ProofRef:  "proof-1",
		Timestamp: at,
	}
}

// organicHistory spreads varied deltas from several issuers over hours.
func organicHistory(n int) []*reputation.Event {
	issuers := []ledger.Principal{"issuer-1", "issuer-2", "issuer-3"}
	deltas := []int64{10, 25, -5, 30, 15}
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	evs := make([]*reputation.Event, n)
	for i := 0; i < n; i++ {
		evs[i] = event(issuers[i%len(issuers)], deltas[i%len(deltas)], base.Add(time.Duration(i)*time.Hour))
	}
	return evs
}

func TestScore_cleanHistory(t *testing.T) {
	scorer := anomaly.NewRuleBasedScorer()
	acct := &reputation.Account{Principal: "alice"}

	report, err := scorer.Score(ctx, acct, organicHistory(20))
	if err != nil {
		t.Fatal(err)
	}
	if report.Score != 0 {
		t.Errorf("clean history scored %d: %+v", report.Score, report.Findings)
	}
	if report.Severity != "none" {
		t.Errorf("severity = %q", report.Severity)
	}
	if report.Flagged {
		t.Error("clean history should not be flagged")
	}
	if report.Findings == nil {
		t.Error("findings should be an empty slice, not nil")
	}
}

func TestScore_singleIssuerDominance(t *testing.T) {
	scorer := anomaly.NewRuleBasedScorer()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var evs []*reputation.Event
	for i := 0; i < 12; i++ {
		evs = append(evs, event("issuer-1", int64(5+i), base.Add(time.Duration(i)*time.Hour)))
	}

	report, err := scorer.Score(ctx, &reputation.Account{Principal: "alice"}, evs)
	if err != nil {
		t.Fatal(err)
	}
	if !hasRule(report, "single_issuer_dominance") {
		t.Errorf("expected dominance finding, got %+v", report.Findings)
	}
}

func TestScore_dominanceNeedsHistory(t *testing.T) {
	scorer := anomaly.NewRuleBasedScorer()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Only 3 events — too small a sample for the ratio rule.
	var evs []*reputation.Event
	for i := 0; i < 3; i++ {
		evs = append(evs, event("issuer-1", int64(5+i), base.Add(time.Duration(i)*time.Hour)))
	}

	report, err := scorer.Score(ctx, &reputation.Account{Principal: "alice"}, evs)
	if err != nil {
		t.Fatal(err)
	}
	if hasRule(report, "single_issuer_dominance") {
		t.Error("ratio rule should stay silent on short histories")
	}
}

func TestScore_boundRiding(t *testing.T) {
	scorer := anomaly.NewRuleBasedScorer()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	issuers := []ledger.Principal{"issuer-1", "issuer-2"}
	var evs []*reputation.Event
	for i := 0; i < 6; i++ {
		evs = append(evs, event(issuers[i%2], reputation.MaxDelta, base.Add(time.Duration(i)*time.Hour)))
	}

	report, err := scorer.Score(ctx, &reputation.Account{Principal: "alice"}, evs)
	if err != nil {
		t.Fatal(err)
	}
	if !hasRule(report, "bound_riding") {
		t.Errorf("expected bound-riding finding, got %+v", report.Findings)
	}
}

func TestScore_burstIssuance(t *testing.T) {
	scorer := anomaly.NewRuleBasedScorer()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	issuers := []ledger.Principal{"issuer-1", "issuer-2", "issuer-3"}
	deltas := []int64{10, 20, 30}
	var evs []*reputation.Event
	for i := 0; i < 5; i++ {
		evs = append(evs, event(issuers[i%3], deltas[i%3], base.Add(time.Duration(i)*5*time.Second)))
	}

	report, err := scorer.Score(ctx, &reputation.Account{Principal: "alice"}, evs)
	if err != nil {
		t.Fatal(err)
	}
	if !hasRule(report, "burst_issuance") {
		t.Errorf("expected burst finding, got %+v", report.Findings)
	}
}

func TestScore_selfIssuance(t *testing.T) {
	scorer := anomaly.NewRuleBasedScorer()
	evs := organicHistory(12)
	evs[4].Issuer = "alice"

	report, err := scorer.Score(ctx, &reputation.Account{Principal: "alice"}, evs)
	if err != nil {
		t.Fatal(err)
	}
	if !hasRule(report, "self_issuance") {
		t.Errorf("expected self-issuance finding, got %+v", report.Findings)
	}
}

func TestScore_capsAt100(t *testing.T) {
	scorer := anomaly.NewRuleBasedScorer()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Every rule trips: one issuer, max deltas, sub-minute spacing,
	// self-issuance mixed in.
	var evs []*reputation.Event
	for i := 0; i < 15; i++ {
		evs = append(evs, event("alice", reputation.MaxDelta, base.Add(time.Duration(i)*time.Second)))
	}

	report, err := scorer.Score(ctx, &reputation.Account{Principal: "alice"}, evs)
	if err != nil {
		t.Fatal(err)
	}
	if report.Score != 100 {
		t.Errorf("score = %d, want capped at 100", report.Score)
	}
	if report.Severity != "critical" || !report.Flagged {
		t.Errorf("report = %+v", report)
	}
}

func hasRule(r *anomaly.Report, rule string) bool {
	for _, f := range r.Findings {
		if f.Rule == rule {
			return true
		}
	}
	return false
}
