package orders

import "fmt"

// Issue codes. Each rule in Validate produces a distinct code so callers can
// map failures back to form fields.
const (
	CodeRequired      = "REQUIRED"
	CodeInvalidVolume = "INVALID_VOLUME"
	CodeExcessiveRisk = "EXCESSIVE_RISK"
	CodeInvalidSL     = "INVALID_SL"
	CodeInvalidTP     = "INVALID_TP"
	CodeLargeVolume   = "LARGE_VOLUME"
)

const (
	maxRiskPercent  = 10.0
	largeVolumeLots = 10.0
)

type Issue struct {
	Field   string
	Code    string
	Message string
}

type Report struct {
	Errors   []Issue
	Warnings []Issue
}

func (r Report) Valid() bool { return len(r.Errors) == 0 }

func (r *Report) fail(field, code, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{field, code, fmt.Sprintf(format, args...)})
}

func (r *Report) warn(field, code, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{field, code, fmt.Sprintf(format, args...)})
}

// Validate applies the order rule set to a ticket. It is pure: no I/O, no
// state, same report for the same ticket every time.
func Validate(t Ticket) Report {
	var r Report

	if t.Symbol == "" {
		r.fail("symbol", CodeRequired, "symbol is required")
	}

	if t.Volume <= 0 {
		r.fail("volume", CodeInvalidVolume, "volume must be greater than zero")
	} else if t.Volume > largeVolumeLots {
		r.warn("volume", CodeLargeVolume,
			"volume %.2f lots exceeds %.0f lots", t.Volume, largeVolumeLots)
	}

	if (t.Type == Limit || t.Type == Stop) && t.Price == nil {
		r.fail("price", CodeRequired, "%s orders require a price", t.Type)
	}

	if t.RiskPercent != nil && *t.RiskPercent > maxRiskPercent {
		r.fail("riskPercentage", CodeExcessiveRisk,
			"risk %.1f%% exceeds maximum %.0f%%", *t.RiskPercent, maxRiskPercent)
	}

	if t.StopLoss != nil && t.Price != nil {
		if t.Side.IsBuy() && *t.StopLoss >= *t.Price {
			r.fail("stopLoss", CodeInvalidSL, "buy stop loss must be below price")
		}
		if !t.Side.IsBuy() && *t.StopLoss <= *t.Price {
			r.fail("stopLoss", CodeInvalidSL, "sell stop loss must be above price")
		}
	}

	if t.TakeProfit != nil && t.Price != nil {
		if t.Side.IsBuy() && *t.TakeProfit <= *t.Price {
			r.fail("takeProfit", CodeInvalidTP, "buy take profit must be above price")
		}
		if !t.Side.IsBuy() && *t.TakeProfit >= *t.Price {
			r.fail("takeProfit", CodeInvalidTP, "sell take profit must be below price")
		}
	}

	return r
}
