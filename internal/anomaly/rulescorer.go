package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/credence-id/credence/internal/ledger"
	"github.com/credence-id/credence/internal/reputation"
)

// minEventsForRatioRules is the history size below which ratio-based rules
// stay silent; small samples trip them too easily.
const minEventsForRatioRules = 10

// ruleFunc inspects an account's event history and returns zero or more
// Findings if its rule matches.
type ruleFunc func(acct *reputation.Account, events []*reputation.Event) []Finding

// RuleBasedScorer is the default Scorer implementation. It runs a fixed set
// of heuristics against the event stream and accumulates a score.
type RuleBasedScorer struct {
	rules []ruleFunc
}

// NewRuleBasedScorer returns a RuleBasedScorer loaded with the default rule set.
func NewRuleBasedScorer() *RuleBasedScorer {
	s := &RuleBasedScorer{}
	s.rules = []ruleFunc{
		ruleSingleIssuerDominance,
		ruleBoundRiding,
		ruleBurstIssuance,
		ruleSelfIssuance,
	}
	return s
}

// Score implements Scorer.
func (s *RuleBasedScorer) Score(_ context.Context, acct *reputation.Account, events []*reputation.Event) (*Report, error) {
	var findings []Finding
	for _, r := range s.rules {
		findings = append(findings, r(acct, events)...)
	}

	total := 0
	for _, f := range findings {
		total += int(f.Confidence * 25)
	}
	if total > 100 {
		total = 100
	}

	if findings == nil {
		findings = []Finding{}
	}

	return &Report{
		Score:    total,
		Severity: severityLabel(total),
		Findings: findings,
		Flagged:  total >= 65,
	}, nil
}

// ── Rules ─────────────────────────────────────────────────────────────────────

// ruleSingleIssuerDominance flags accounts whose score comes almost entirely
// from one issuer. A single counterparty vouching for everything is the
// cheapest collusion shape.
func ruleSingleIssuerDominance(_ *reputation.Account, events []*reputation.Event) []Finding {
	if len(events) < minEventsForRatioRules {
		return nil
	}
	counts := make(map[ledger.Principal]int)
	for _, ev := range events {
		counts[ev.Issuer]++
	}
	for issuer, n := range counts {
		if float64(n)/float64(len(events)) >= 0.9 {
			return []Finding{{
				Rule:        "single_issuer_dominance",
				Description: fmt.Sprintf("Issuer %s produced %d of %d events", issuer, n, len(events)),
				Confidence:  0.8,
			}}
		}
	}
	return nil
}

// ruleBoundRiding flags long runs of events pinned at the per-event delta
// bound. Organic attestations vary; a farm issuing the maximum every time
// does not.
func ruleBoundRiding(_ *reputation.Account, events []*reputation.Event) []Finding {
	run := 0
	for _, ev := range events {
		if ev.Delta == reputation.MaxDelta || ev.Delta == reputation.MinDelta {
			run++
			if run >= 5 {
				return []Finding{{
					Rule:        "bound_riding",
					Description: "Five or more consecutive events at the delta bound",
					Confidence:  0.6,
				}}
			}
		} else {
			run = 0
		}
	}
	return nil
}

// ruleBurstIssuance flags five or more events landing inside a single
// minute. Events carry proof refs that take real-world time to produce.
func ruleBurstIssuance(_ *reputation.Account, events []*reputation.Event) []Finding {
	if len(events) < 5 {
		return nil
	}
	for i := 0; i+4 < len(events); i++ {
		window := events[i+4].Timestamp.Sub(events[i].Timestamp)
		if window < 0 {
			window = -window
		}
		if window <= time.Minute {
			return []Finding{{
				Rule:        "burst_issuance",
				Description: "Five or more events within a one-minute window",
				Confidence:  0.7,
			}}
		}
	}
	return nil
}

// ruleSelfIssuance flags events issued under the account holder's own
// principal. The ledger permits it when the holder also carries the issuer
// role, but self-vouching carries no trust signal.
func ruleSelfIssuance(acct *reputation.Account, events []*reputation.Event) []Finding {
	if acct == nil {
		return nil
	}
	var findings []Finding
	for _, ev := range events {
		if ev.Issuer == acct.Principal {
			findings = append(findings, Finding{
				Rule:        "self_issuance",
				Description: "Account received an event issued under its own principal",
				Confidence:  0.9,
			})
		}
	}
	return findings
}
