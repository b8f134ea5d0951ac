package ledger

import (
	"fmt"

	"riskledger/market"
)

// Tolerance for pip arithmetic so exact-step moves are not lost to binary
// rounding.
const trailingEps = 1e-9

// advanceTrailing runs the trailing-stop engine for one freshly-marked
// position. The level baseline before the first advance is the open price
// offset by the trailing distance; an advance happens only once the price
// has moved at least Step pips in the position's favor beyond the last
// level. The level is monotonic: it may only tighten toward the current
// price. A computed regression is a defect and is reported, never applied.
func advanceTrailing(p *Position) error {
	tr := &p.Trailing
	if !tr.Enabled || tr.Distance <= 0 {
		return nil
	}

	pip := market.PipSize(p.Symbol)
	dist := tr.Distance * pip
	step := tr.Step * pip

	if p.Side.IsBuy() {
		base := p.OpenPrice - dist
		if tr.Level != nil {
			base = *tr.Level
		}
		level := p.CurrentPrice - dist
		if level < base+step-trailingEps || level <= base+trailingEps {
			return nil
		}
		if tr.Level != nil && level <= *tr.Level {
			return fmt.Errorf("%w: trailing level regression %.5f -> %.5f on buy %s",
				ErrInvariant, *tr.Level, level, p.ID)
		}
		tr.Level = &level
		if p.StopLoss == nil || level > *p.StopLoss {
			p.StopLoss = clonePtr(&level)
		}
		return nil
	}

	base := p.OpenPrice + dist
	if tr.Level != nil {
		base = *tr.Level
	}
	level := p.CurrentPrice + dist
	if level > base-step+trailingEps || level >= base-trailingEps {
		return nil
	}
	if tr.Level != nil && level >= *tr.Level {
		return fmt.Errorf("%w: trailing level regression %.5f -> %.5f on sell %s",
			ErrInvariant, *tr.Level, level, p.ID)
	}
	tr.Level = &level
	if p.StopLoss == nil || level < *p.StopLoss {
		p.StopLoss = clonePtr(&level)
	}
	return nil
}
