// Package journal records completed-position events and equity snapshots
// for the export/backup collaborators. The core emits; the journal consumes
// through the ledger's close listener.
package journal

import (
	"time"

	"github.com/rs/zerolog"

	"riskledger/ledger"
	"riskledger/risk"
)

// ClosedRecord is the durable form of a realized position.
type ClosedRecord struct {
	PositionID string
	Symbol     string
	Side       string
	Volume     float64
	OpenPrice  float64
	ClosePrice float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// EquitySnapshot captures account margin health at a point in time.
type EquitySnapshot struct {
	Time        time.Time
	Balance     float64
	Equity      float64
	MarginUsed  float64
	FreeMargin  float64
	MarginLevel float64
}

type Journal interface {
	RecordClose(ClosedRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// FromClosed converts a ledger close snapshot into a record.
func FromClosed(c ledger.Closed) ClosedRecord {
	return ClosedRecord{
		PositionID: c.ID,
		Symbol:     c.Symbol,
		Side:       string(c.Side),
		Volume:     c.Volume,
		OpenPrice:  c.OpenPrice,
		ClosePrice: c.ClosePrice,
		OpenTime:   c.OpenTime,
		CloseTime:  c.CloseTime,
		RealizedPL: c.RealizedPL,
		Reason:     c.Reason,
	}
}

// FromStatus converts an account status into an equity snapshot.
func FromStatus(at time.Time, balance float64, st risk.AccountStatus) EquitySnapshot {
	return EquitySnapshot{
		Time:        at,
		Balance:     balance,
		Equity:      st.Equity,
		MarginUsed:  st.MarginUsed,
		FreeMargin:  st.FreeMargin,
		MarginLevel: st.MarginLevel,
	}
}

// Recorder adapts a Journal to the ledger's close listener. A failed write
// must never block a close, so the error is logged and the close proceeds.
type Recorder struct {
	J   Journal
	Log zerolog.Logger
}

func (r Recorder) OnPositionClosed(c ledger.Closed) {
	if err := r.J.RecordClose(FromClosed(c)); err != nil {
		r.Log.Warn().
			Str("position", c.ID).
			Str("symbol", c.Symbol).
			Err(err).
			Msg("journal write failed")
	}
}
