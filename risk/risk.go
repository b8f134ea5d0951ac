// Package risk computes margin requirements, risk projections, and account
// margin-health classification. Everything here is stateless and safe for
// concurrent use; callers pass an account Context snapshot in rather than
// sharing mutable account state.
package risk

import "math"

// Context is the read-only account context supplied by the settings/profile
// collaborator. The core never persists it.
type Context struct {
	Balance         float64
	Leverage        float64
	MarginCallLevel float64 // percent, e.g. 100
	StopOutLevel    float64 // percent, e.g. 50
}

// AccountStatus aggregates margin health over all open positions.
// MarginLevel is +Inf when no margin is in use.
type AccountStatus struct {
	MarginUsed   float64
	UnrealizedPL float64
	Equity       float64
	FreeMargin   float64
	MarginLevel  float64
}

// Tier classifies a margin level against the account thresholds.
type Tier string

const (
	TierSafe     Tier = "safe"
	TierWarning  Tier = "warning"
	TierDanger   Tier = "danger"
	TierCritical Tier = "critical"
)

const safeLevel = 200.0

// Classify partitions [0, +Inf) into the four tiers. Requires
// StopOutLevel < MarginCallLevel < 200 for the partition to be meaningful;
// the config layer enforces that ordering.
func Classify(marginLevel float64, acct Context) Tier {
	switch {
	case math.IsInf(marginLevel, 1) || marginLevel >= safeLevel:
		return TierSafe
	case marginLevel >= acct.MarginCallLevel:
		return TierWarning
	case marginLevel >= acct.StopOutLevel:
		return TierDanger
	default:
		return TierCritical
	}
}

// Level reports the margin level (percent) for the given equity and margin
// used, +Inf when nothing is on margin.
func Level(equity, marginUsed float64) float64 {
	if marginUsed <= 0 {
		return math.Inf(1)
	}
	return equity / marginUsed * 100
}

// CanOpen reports whether a trade requiring marginRequired may be opened:
// the margin must fit in free margin and the projected margin level after
// the trade must stay at or above the margin-call threshold.
func CanOpen(marginRequired float64, st AccountStatus, acct Context) bool {
	if marginRequired > st.FreeMargin {
		return false
	}
	after := Level(st.Equity, st.MarginUsed+marginRequired)
	return after >= acct.MarginCallLevel
}
