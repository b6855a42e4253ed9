package reputation

// LevelForScore maps a total score to a trust level 1–5 using fixed
// thresholds. Any score below the first threshold — including negative
// scores — is level 1.
//
//	< 100        → 1
//	[100, 300)   → 2
//	[300, 600)   → 3
//	[600, 1000)  → 4
//	≥ 1000       → 5
func LevelForScore(score int64) int {
	switch {
	case score >= 1000:
		return 5
	case score >= 600:
		return 4
	case score >= 300:
		return 3
	case score >= 100:
		return 2
	default:
		return 1
	}
}
