package ledger

import (
	"sort"
	"time"

	"riskledger/market"
)

// DefaultTickInterval is the minimum interval between applied ticks for a
// symbol. It bounds recomputation frequency under bursty feeds.
const DefaultTickInterval = time.Second

// throttle is a per-symbol coalescing gate. A tick arriving before the
// interval has elapsed is held as the pending value for its symbol,
// superseding any earlier pending tick; pending ticks are released by due()
// once the interval passes. At most one tick is retained per symbol, so the
// gate never queues unboundedly, and a held tick is only ever discarded by
// being superseded.
type throttle struct {
	interval time.Duration
	now      func() time.Time
	last     map[string]time.Time
	pending  map[string]market.Tick
}

func newThrottle(interval time.Duration, now func() time.Time) *throttle {
	return &throttle{
		interval: interval,
		now:      now,
		last:     make(map[string]time.Time),
		pending:  make(map[string]market.Tick),
	}
}

// admit reports whether the tick may be applied now. A rejected tick is
// retained as the symbol's pending value. An admitted tick supersedes any
// pending one.
func (g *throttle) admit(t market.Tick) bool {
	if g.interval <= 0 {
		return true
	}

	now := g.now()
	if last, ok := g.last[t.Symbol]; ok && now.Sub(last) < g.interval {
		g.pending[t.Symbol] = t
		return false
	}

	g.last[t.Symbol] = now
	delete(g.pending, t.Symbol)
	return true
}

// due releases pending ticks whose interval has elapsed, in symbol order
// so callers apply them deterministically.
func (g *throttle) due() []market.Tick {
	if g.interval <= 0 || len(g.pending) == 0 {
		return nil
	}

	now := g.now()
	syms := make([]string, 0, len(g.pending))
	for sym := range g.pending {
		if now.Sub(g.last[sym]) >= g.interval {
			syms = append(syms, sym)
		}
	}
	sort.Strings(syms)

	out := make([]market.Tick, 0, len(syms))
	for _, sym := range syms {
		out = append(out, g.pending[sym])
		delete(g.pending, sym)
		g.last[sym] = now
	}
	return out
}
