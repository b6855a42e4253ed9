// Package anomaly provides heuristic analysis of reputation score histories.
// It scores an account's event stream against a fixed rule set and flags
// patterns that suggest collusion or score manipulation, so operators can
// review an account before trusting its level.
package anomaly

import (
	"context"

	"github.com/credence-id/credence/internal/reputation"
)

// Finding is a single rule match returned by the scorer.
type Finding struct {
	Rule        string  `json:"rule"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Report is the output of an anomaly analysis run.
type Report struct {
	// Score is the aggregate suspicion score (0–100).
	Score int `json:"score"`

	// Severity is a human-readable label derived from Score:
	//   0–14   → "none"
	//   15–34  → "low"
	//   35–64  → "medium"
	//   65–84  → "high"
	//   85–100 → "critical"
	Severity string `json:"severity"`

	// Findings lists every rule that triggered.
	Findings []Finding `json:"findings"`

	// Flagged is true when Score ≥ 65. Flagged accounts warrant operator
	// review; the ledger itself never acts on this automatically.
	Flagged bool `json:"flagged"`
}

// Scorer analyses an account's event history for manipulation indicators.
type Scorer interface {
	Score(ctx context.Context, acct *reputation.Account, events []*reputation.Event) (*Report, error)
}

// severityLabel maps a 0–100 score to a severity string.
func severityLabel(score int) string {
	switch {
	case score >= 85:
		return "critical"
	case score >= 65:
		return "high"
	case score >= 35:
		return "medium"
	case score >= 15:
		return "low"
	default:
		return "none"
	}
}
