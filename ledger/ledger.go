// Package ledger owns the set of open positions and keeps it consistent
// with incoming price ticks. All mutating operations are serialized behind
// one mutex; reads hand out deep-copied snapshots so a caller never observes
// a partially-applied tick.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"riskledger/internal/id"
	"riskledger/market"
	"riskledger/risk"
)

var (
	ErrNotFound  = errors.New("position not found")
	ErrInvariant = errors.New("ledger invariant violated")
)

// Listener is notified after a position leaves the ledger. Calls happen
// outside the ledger lock, so implementations may call back into the ledger.
type Listener interface {
	OnPositionClosed(c Closed)
}

type Ledger struct {
	mu        sync.Mutex
	positions map[string]*Position
	order     []string // insertion order, for deterministic snapshots
	ticks     map[string]market.Tick
	gate      *throttle
	listener  Listener
	log       zerolog.Logger
}

func New() *Ledger {
	return &Ledger{
		positions: make(map[string]*Position),
		ticks:     make(map[string]market.Tick),
		gate:      newThrottle(DefaultTickInterval, time.Now),
		log:       zerolog.Nop(),
	}
}

func (l *Ledger) SetLogger(log zerolog.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = log
}

// SetListener registers an optional close listener; the journal subscribes
// through this.
func (l *Ledger) SetListener(lst Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listener = lst
}

// SetThrottle changes the minimum interval between applied ticks per symbol.
// Zero disables throttling. The clock is injectable for tests.
func (l *Ledger) SetThrottle(interval time.Duration, now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	l.gate = newThrottle(interval, now)
}

// ApplyTick ingests a quote. A tick arriving before the throttle interval
// has elapsed for its symbol is coalesced: it supersedes any pending tick
// and is applied by a later ApplyTick or Flush. Returns whether the ledger
// state changed.
func (l *Ledger) ApplyTick(t market.Tick) (bool, error) {
	l.mu.Lock()

	if !l.gate.admit(t) {
		l.mu.Unlock()
		return false, nil
	}

	if err := l.applyTickLocked(t); err != nil {
		l.mu.Unlock()
		return false, err
	}
	l.mu.Unlock()
	return true, nil
}

// Flush applies any coalesced ticks whose throttle interval has elapsed.
// It returns the number of ticks applied; on error the count covers the
// ticks applied before the failure.
func (l *Ledger) Flush() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	applied := 0
	for _, t := range l.gate.due() {
		if err := l.applyTickLocked(t); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (l *Ledger) applyTickLocked(t market.Tick) error {
	l.ticks[t.Symbol] = t

	for _, pid := range l.order {
		p := l.positions[pid]
		if p.Symbol != t.Symbol {
			continue
		}
		p.mark(t.ExitSide(p.Side.IsBuy()))

		if err := advanceTrailing(p); err != nil {
			l.log.Error().
				Str("position", p.ID).
				Str("symbol", p.Symbol).
				Err(err).
				Msg("trailing stop invariant violated")
			return fmt.Errorf("apply tick %s: %w", t.Symbol, err)
		}
	}
	return nil
}

// Open creates a position from a fill. P&L starts at zero with the current
// price equal to the fill price.
func (l *Ledger) Open(req OpenRequest) Position {
	openTime := req.Time
	if openTime.IsZero() {
		openTime = time.Now()
	}

	p := &Position{
		ID:           id.New(),
		Symbol:       req.Symbol,
		Side:         req.Side,
		Volume:       req.Volume,
		OpenPrice:    req.FillPrice,
		CurrentPrice: req.FillPrice,
		StopLoss:     clonePtr(req.StopLoss),
		TakeProfit:   clonePtr(req.TakeProfit),
		Trailing:     req.Trailing,
		Commission:   req.Commission,
		OpenTime:     openTime,
		Comment:      req.Comment,
	}
	p.Trailing.Level = clonePtr(req.Trailing.Level)

	l.mu.Lock()
	l.positions[p.ID] = p
	l.order = append(l.order, p.ID)
	snap := p.clone()
	l.mu.Unlock()

	l.log.Info().
		Str("position", snap.ID).
		Str("symbol", snap.Symbol).
		Str("side", string(snap.Side)).
		Float64("volume", snap.Volume).
		Float64("price", snap.OpenPrice).
		Msg("position opened")

	return snap
}

// Modify updates the mutable fields of an open position. Identity fields
// cannot be expressed in Update and are therefore immutable.
func (l *Ledger) Modify(pid string, u Update) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[pid]
	if !ok {
		return Position{}, fmt.Errorf("modify %s: %w", pid, ErrNotFound)
	}

	if u.StopLoss != nil {
		p.StopLoss = clonePtr(u.StopLoss)
	}
	if u.TakeProfit != nil {
		p.TakeProfit = clonePtr(u.TakeProfit)
	}
	if u.Trailing != nil {
		// Disabling freezes the stop loss at its last value; only the
		// config and engine state are replaced.
		tr := *u.Trailing
		tr.Level = clonePtr(u.Trailing.Level)
		p.Trailing = tr
	}
	if u.Comment != nil {
		p.Comment = *u.Comment
	}

	return p.clone(), nil
}

// Close removes a position and returns its realized snapshot. The close
// price is the last marked price; reason defaults to "ManualClose".
func (l *Ledger) Close(pid, reason string) (Closed, error) {
	if reason == "" {
		reason = "ManualClose"
	}

	l.mu.Lock()

	p, ok := l.positions[pid]
	if !ok {
		l.mu.Unlock()
		return Closed{}, fmt.Errorf("close %s: %w", pid, ErrNotFound)
	}

	closeTime := time.Now()
	if t, ok := l.ticks[p.Symbol]; ok && !t.Time.IsZero() {
		closeTime = t.Time
	}

	c := Closed{
		Position:   p.clone(),
		ClosePrice: p.CurrentPrice,
		CloseTime:  closeTime,
		RealizedPL: p.PL + p.Swap - p.Commission,
		Reason:     reason,
	}

	delete(l.positions, pid)
	for i, oid := range l.order {
		if oid == pid {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}

	listener := l.listener
	l.mu.Unlock()

	l.log.Info().
		Str("position", pid).
		Str("reason", reason).
		Float64("realized_pl", c.RealizedPL).
		Msg("position closed")

	if listener != nil {
		listener.OnPositionClosed(c)
	}
	return c, nil
}

// Get returns a snapshot of one position.
func (l *Ledger) Get(pid string) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[pid]
	if !ok {
		return Position{}, fmt.Errorf("get %s: %w", pid, ErrNotFound)
	}
	return p.clone(), nil
}

// Positions returns a consistent point-in-time snapshot of all open
// positions in open order.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.order))
	for _, pid := range l.order {
		out = append(out, l.positions[pid].clone())
	}
	return out
}

// MarginStatus aggregates margin health over all open positions. Margin per
// position is computed from the entry-side price of the latest tick (ask for
// buys, bid for sells), falling back to the marked price before any tick has
// been seen.
func (l *Ledger) MarginStatus(acct risk.Context) risk.AccountStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	var used, unrealized float64
	for _, pid := range l.order {
		p := l.positions[pid]
		unrealized += p.PL

		price := p.CurrentPrice
		if t, ok := l.ticks[p.Symbol]; ok {
			price = t.EntrySide(p.Side.IsBuy())
		}
		used += risk.MarginRequired(p.Volume, price, acct)
	}

	equity := acct.Balance + unrealized
	return risk.AccountStatus{
		MarginUsed:   used,
		UnrealizedPL: unrealized,
		Equity:       equity,
		FreeMargin:   equity - used,
		MarginLevel:  risk.Level(equity, used),
	}
}
