package journal

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskledger/ledger"
	"riskledger/orders"
)

type stubJournal struct {
	err    error
	closes []ClosedRecord
}

func (s *stubJournal) RecordClose(r ClosedRecord) error {
	if s.err != nil {
		return s.err
	}
	s.closes = append(s.closes, r)
	return nil
}

func (s *stubJournal) RecordEquity(EquitySnapshot) error { return s.err }
func (s *stubJournal) Close() error                      { return nil }

func TestRecorderRecordsClose(t *testing.T) {
	t.Parallel()

	j := &stubJournal{}
	r := Recorder{J: j}

	r.OnPositionClosed(ledger.Closed{
		Position: ledger.Position{
			ID:        "01HX2",
			Symbol:    "EURUSD",
			Side:      orders.Buy,
			Volume:    0.1,
			OpenPrice: 1.0850,
			OpenTime:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		ClosePrice: 1.0875,
		CloseTime:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		RealizedPL: 25.00,
		Reason:     "ManualClose",
	})

	require.Len(t, j.closes, 1)
	got := j.closes[0]
	assert.Equal(t, "01HX2", got.PositionID)
	assert.Equal(t, "EURUSD", got.Symbol)
	assert.Equal(t, "BUY", got.Side)
	assert.InDelta(t, 25.00, got.RealizedPL, 1e-9)
	assert.Equal(t, "ManualClose", got.Reason)
}

func TestRecorderLogsFailedWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := Recorder{
		J:   &stubJournal{err: errors.New("disk full")},
		Log: zerolog.New(&buf),
	}

	r.OnPositionClosed(ledger.Closed{
		Position: ledger.Position{ID: "01HX3", Symbol: "GBPUSD"},
	})

	out := buf.String()
	assert.Contains(t, out, "journal write failed")
	assert.Contains(t, out, "01HX3")
	assert.Contains(t, out, "disk full")
}

// A Recorder built without a logger must still swallow the failure instead
// of panicking; the zero-value logger is a no-op.
func TestRecorderZeroLoggerDoesNotPanic(t *testing.T) {
	t.Parallel()

	r := Recorder{J: &stubJournal{err: errors.New("boom")}}
	assert.NotPanics(t, func() {
		r.OnPositionClosed(ledger.Closed{Position: ledger.Position{ID: "01HX4"}})
	})
}
