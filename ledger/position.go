package ledger

import (
	"time"

	"riskledger/market"
	"riskledger/orders"
)

// Trailing is the per-position trailing stop configuration and state.
// Distance and Step are in pips. Level is the last level the engine set;
// nil until the first favorable advance.
type Trailing struct {
	Enabled  bool
	Distance float64
	Step     float64
	Level    *float64
}

// Position is an open trade owned by the ledger. CurrentPrice, PL and
// PLPercent are derived by ApplyTick and never set directly.
type Position struct {
	ID           string
	Symbol       string
	Side         orders.Side
	Volume       float64 // lots
	OpenPrice    float64
	CurrentPrice float64
	PL           float64
	PLPercent    float64
	Swap         float64
	Commission   float64
	StopLoss     *float64
	TakeProfit   *float64
	Trailing     Trailing
	OpenTime     time.Time
	Comment      string
}

// mark revalues the position at price and recomputes derived P&L fields.
func (p *Position) mark(price float64) {
	p.CurrentPrice = price
	diff := price - p.OpenPrice
	if !p.Side.IsBuy() {
		diff = -diff
	}
	p.PL = diff * p.Volume * market.LotSize
	if p.OpenPrice != 0 {
		p.PLPercent = diff / p.OpenPrice * 100
	}
}

// clone returns a deep copy so snapshot readers never share pointers with
// ledger-owned state.
func (p *Position) clone() Position {
	c := *p
	c.StopLoss = clonePtr(p.StopLoss)
	c.TakeProfit = clonePtr(p.TakeProfit)
	c.Trailing.Level = clonePtr(p.Trailing.Level)
	return c
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Closed is the realized snapshot returned when a position is removed.
type Closed struct {
	Position
	ClosePrice float64
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// Update carries the mutable fields of an open position. Nil fields are
// left unchanged; identity fields (id, symbol, side, open time) are not
// representable here and therefore cannot be mutated.
type Update struct {
	StopLoss   *float64
	TakeProfit *float64
	Trailing   *Trailing
	Comment    *string
}

// OpenRequest describes a fill that creates a position.
type OpenRequest struct {
	Symbol     string
	Side       orders.Side
	Volume     float64
	FillPrice  float64
	StopLoss   *float64
	TakeProfit *float64
	Trailing   Trailing
	Commission float64
	Time       time.Time
	Comment    string
}
