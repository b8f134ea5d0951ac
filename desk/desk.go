// Package desk is the order-submission surface. It validates tickets, gates
// them through the risk calculator, and turns fills into ledger positions.
// Pending limit and stop orders rest on the desk and fill when a tick
// crosses their price.
package desk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"riskledger/internal/id"
	"riskledger/ledger"
	"riskledger/market"
	"riskledger/orders"
	"riskledger/risk"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrTerminal           = errors.New("order is in a terminal state")
	ErrMarketClosed       = errors.New("no market price for symbol")
	ErrInsufficientMargin = errors.New("insufficient free margin")
)

// AccountSource supplies the current account context snapshot. The desk
// reads it fresh for every margin decision and never persists it.
type AccountSource func() risk.Context

// Result reports the outcome of a submission. Validation issues are carried
// as values; they are never returned as errors.
type Result struct {
	OrderID string
	Status  orders.Status
	Report  orders.Report
}

type Desk struct {
	mu     sync.Mutex
	book   map[string]*orders.Order
	seq    []string
	ledger *ledger.Ledger
	calc   risk.Calculator
	acct   AccountSource
	ticks  *market.TickStore
	log    zerolog.Logger
}

func New(l *ledger.Ledger, calc risk.Calculator, acct AccountSource) *Desk {
	return &Desk{
		book:   make(map[string]*orders.Order),
		ledger: l,
		calc:   calc,
		acct:   acct,
		ticks:  market.NewTickStore(),
		log:    zerolog.Nop(),
	}
}

func (d *Desk) SetLogger(log zerolog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = log
}

// Submit validates and accepts a ticket. Market tickets fill immediately at
// the current tick; limit and stop tickets rest as pending. A ticket that
// fails validation is rejected with the report attached and a nil error.
func (d *Desk) Submit(ctx context.Context, t orders.Ticket) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	report := orders.Validate(t)
	o := &orders.Order{
		ID:          id.New(),
		Symbol:      t.Symbol,
		Type:        t.Type,
		Side:        t.Side,
		Volume:      t.Volume,
		Price:       t.Price,
		StopLoss:    t.StopLoss,
		TakeProfit:  t.TakeProfit,
		RiskPercent: t.RiskPercent,
		Comment:     t.Comment,
		Status:      orders.Pending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if !report.Valid() {
		o.Status = orders.Rejected
		d.record(o)
		return Result{OrderID: o.ID, Status: o.Status, Report: report}, nil
	}

	if t.Type == orders.Market {
		tick, err := d.ticks.Get(t.Symbol)
		if err != nil {
			o.Status = orders.Rejected
			d.record(o)
			return Result{OrderID: o.ID, Status: o.Status, Report: report},
				fmt.Errorf("submit %s: %w", t.Symbol, ErrMarketClosed)
		}

		fill := tick.EntrySide(t.Side.IsBuy())
		if err := d.marginGate(t.Volume, fill); err != nil {
			o.Status = orders.Rejected
			d.record(o)
			return Result{OrderID: o.ID, Status: o.Status, Report: report},
				fmt.Errorf("submit %s: %w", t.Symbol, err)
		}

		d.record(o)
		d.fill(o, fill, tick.Time)
		return Result{OrderID: o.ID, Status: orders.Filled, Report: report}, nil
	}

	d.record(o)
	d.log.Debug().Str("order", o.ID).Str("type", string(o.Type)).Msg("order resting")
	return Result{OrderID: o.ID, Status: orders.Pending, Report: report}, nil
}

// Cancel moves a pending order to Cancelled. Terminal orders are immutable.
func (d *Desk) Cancel(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.book[orderID]
	if !ok {
		return fmt.Errorf("cancel %s: %w", orderID, ErrNotFound)
	}
	if o.Status.Terminal() {
		return fmt.Errorf("cancel %s (%s): %w", orderID, o.Status, ErrTerminal)
	}
	o.Status = orders.Cancelled
	o.UpdatedAt = time.Now()
	return nil
}

// Amend updates a pending order and re-validates the result. An amendment
// that would make the order invalid is refused and the order is unchanged.
func (d *Desk) Amend(ctx context.Context, orderID string, u orders.Update) (orders.Report, error) {
	if err := ctx.Err(); err != nil {
		return orders.Report{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.book[orderID]
	if !ok {
		return orders.Report{}, fmt.Errorf("amend %s: %w", orderID, ErrNotFound)
	}
	if o.Status.Terminal() {
		return orders.Report{}, fmt.Errorf("amend %s (%s): %w", orderID, o.Status, ErrTerminal)
	}

	amended := *o
	if u.Price != nil {
		amended.Price = u.Price
	}
	if u.StopLoss != nil {
		amended.StopLoss = u.StopLoss
	}
	if u.TakeProfit != nil {
		amended.TakeProfit = u.TakeProfit
	}
	if u.Volume != nil {
		amended.Volume = *u.Volume
	}

	report := orders.Validate(orders.Ticket{
		Symbol:      amended.Symbol,
		Type:        amended.Type,
		Side:        amended.Side,
		Volume:      amended.Volume,
		Price:       amended.Price,
		StopLoss:    amended.StopLoss,
		TakeProfit:  amended.TakeProfit,
		RiskPercent: amended.RiskPercent,
	})
	if !report.Valid() {
		return report, nil
	}

	amended.UpdatedAt = time.Now()
	*o = amended
	return report, nil
}

// Order returns a copy of one order.
func (d *Desk) Order(orderID string) (orders.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.book[orderID]
	if !ok {
		return orders.Order{}, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return *o, nil
}

// Orders returns all orders in submission order.
func (d *Desk) Orders() []orders.Order {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]orders.Order, 0, len(d.seq))
	for _, oid := range d.seq {
		out = append(out, *d.book[oid])
	}
	return out
}

// OnTick feeds a quote through the ledger and then fills any resting orders
// the tick crosses. Candidate fields are snapshotted under the lock; the
// fill itself re-checks that the order is still pending, so a Cancel or
// Amend racing the tick either lands first or observes a terminal order.
func (d *Desk) OnTick(t market.Tick) error {
	d.ticks.Set(t)

	if _, err := d.ledger.ApplyTick(t); err != nil {
		return err
	}

	type candidate struct {
		o      *orders.Order
		price  float64
		volume float64
	}

	d.mu.Lock()
	var fills []candidate
	for _, oid := range d.seq {
		o := d.book[oid]
		if o.Status != orders.Pending || o.Symbol != t.Symbol || o.Price == nil {
			continue
		}
		if crossed(o, t) {
			fills = append(fills, candidate{o: o, price: *o.Price, volume: o.Volume})
		}
	}
	d.mu.Unlock()

	for _, c := range fills {
		if err := d.marginGate(c.volume, c.price); err != nil {
			d.reject(c.o, err)
			continue
		}
		d.fill(c.o, c.price, t.Time)
	}
	return nil
}

// crossed reports whether the tick reaches a resting order's price: limits
// fill on the favorable side, stops on the breakout side.
func crossed(o *orders.Order, t market.Tick) bool {
	entry := t.EntrySide(o.Side.IsBuy())
	switch o.Type {
	case orders.Limit:
		if o.Side.IsBuy() {
			return entry <= *o.Price
		}
		return entry >= *o.Price
	case orders.Stop:
		if o.Side.IsBuy() {
			return entry >= *o.Price
		}
		return entry <= *o.Price
	}
	return false
}

func (d *Desk) marginGate(volume, price float64) error {
	acct := d.acct()
	required := risk.MarginRequired(volume, price, acct)
	if !risk.CanOpen(required, d.ledger.MarginStatus(acct), acct) {
		return ErrInsufficientMargin
	}
	return nil
}

func (d *Desk) record(o *orders.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.book[o.ID] = o
	d.seq = append(d.seq, o.ID)
}

// reject moves a still-pending order to Rejected. An order that reached a
// terminal state in the meantime is left alone.
func (d *Desk) reject(o *orders.Order, cause error) {
	d.mu.Lock()
	if o.Status != orders.Pending {
		d.mu.Unlock()
		return
	}
	o.Status = orders.Rejected
	o.UpdatedAt = time.Now()
	d.mu.Unlock()

	d.log.Warn().Str("order", o.ID).Err(cause).Msg("resting order rejected at fill")
}

// fill transitions a pending order to Filled and opens the position. The
// transition and the field snapshot happen under the lock; an order that is
// no longer pending is skipped, so terminal states are never overwritten.
func (d *Desk) fill(o *orders.Order, price float64, at time.Time) bool {
	d.mu.Lock()
	if o.Status != orders.Pending {
		d.mu.Unlock()
		return false
	}
	o.Status = orders.Filled
	o.UpdatedAt = time.Now()
	snap := *o
	d.mu.Unlock()

	pos := d.ledger.Open(ledger.OpenRequest{
		Symbol:     snap.Symbol,
		Side:       snap.Side,
		Volume:     snap.Volume,
		FillPrice:  price,
		StopLoss:   snap.StopLoss,
		TakeProfit: snap.TakeProfit,
		Time:       at,
		Comment:    snap.Comment,
	})

	d.log.Info().
		Str("order", snap.ID).
		Str("position", pos.ID).
		Float64("price", price).
		Msg("order filled")
	return true
}
