package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskledger/orders"
)

func applyBid(t *testing.T, l *Ledger, symbol string, bid float64, tm time.Time) {
	t.Helper()
	_, err := l.ApplyTick(tickAt(symbol, bid, bid+0.0002, tm))
	require.NoError(t, err)
}

func TestTrailingAdvancesBuy(t *testing.T) {
	l := newLedger(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p := l.Open(OpenRequest{
		Symbol:    "EURUSD",
		Side:      orders.Buy,
		Volume:    0.1,
		FillPrice: 1.0850,
		Trailing:  Trailing{Enabled: true, Distance: 10, Step: 5},
		Time:      t0,
	})

	// 20 pips favorable: level 1.0860 - 10 pips = 1.0860.
	applyBid(t, l, "EURUSD", 1.0870, t0.Add(time.Second))

	got, _ := l.Get(p.ID)
	require.NotNil(t, got.Trailing.Level)
	assert.InDelta(t, 1.0860, *got.Trailing.Level, 1e-9)
	require.NotNil(t, got.StopLoss)
	assert.InDelta(t, 1.0860, *got.StopLoss, 1e-9)
}

func TestTrailingRequiresStep(t *testing.T) {
	l := newLedger(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p := l.Open(OpenRequest{
		Symbol:    "EURUSD",
		Side:      orders.Buy,
		Volume:    0.1,
		FillPrice: 1.0850,
		Trailing:  Trailing{Enabled: true, Distance: 10, Step: 5},
		Time:      t0,
	})

	applyBid(t, l, "EURUSD", 1.0870, t0.Add(1*time.Second)) // level 1.0860
	applyBid(t, l, "EURUSD", 1.0872, t0.Add(2*time.Second)) // +2 pips, below step

	got, _ := l.Get(p.ID)
	assert.InDelta(t, 1.0860, *got.Trailing.Level, 1e-9)

	applyBid(t, l, "EURUSD", 1.0875, t0.Add(3*time.Second)) // +5 pips, advances

	got, _ = l.Get(p.ID)
	assert.InDelta(t, 1.0865, *got.Trailing.Level, 1e-9)
}

func TestTrailingNeverRegresses(t *testing.T) {
	l := newLedger(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p := l.Open(OpenRequest{
		Symbol:    "EURUSD",
		Side:      orders.Buy,
		Volume:    0.1,
		FillPrice: 1.0850,
		Trailing:  Trailing{Enabled: true, Distance: 10, Step: 1},
		Time:      t0,
	})

	rng := rand.New(rand.NewSource(11))
	price := 1.0850
	var lastLevel float64

	for i := 0; i < 300; i++ {
		// Random walk with both favorable and adverse moves.
		price += (rng.Float64() - 0.45) * 0.0010
		applyBid(t, l, "EURUSD", price, t0.Add(time.Duration(i+1)*time.Second))

		got, err := l.Get(p.ID)
		require.NoError(t, err)
		if got.Trailing.Level == nil {
			continue
		}
		if lastLevel != 0 {
			assert.GreaterOrEqual(t, *got.Trailing.Level, lastLevel,
				"trailing level regressed at step %d", i)
		}
		lastLevel = *got.Trailing.Level
	}
}

func TestTrailingSell(t *testing.T) {
	l := newLedger(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p := l.Open(OpenRequest{
		Symbol:    "EURUSD",
		Side:      orders.Sell,
		Volume:    0.1,
		FillPrice: 1.0850,
		Trailing:  Trailing{Enabled: true, Distance: 10, Step: 5},
		Time:      t0,
	})

	// Sell marks at ask; 20 pips favorable move down.
	_, err := l.ApplyTick(tickAt("EURUSD", 1.0828, 1.0830, t0.Add(time.Second)))
	require.NoError(t, err)

	got, _ := l.Get(p.ID)
	require.NotNil(t, got.Trailing.Level)
	assert.InDelta(t, 1.0840, *got.Trailing.Level, 1e-9)
	assert.InDelta(t, 1.0840, *got.StopLoss, 1e-9)

	// Adverse move leaves the level alone.
	_, err = l.ApplyTick(tickAt("EURUSD", 1.0848, 1.0850, t0.Add(2*time.Second)))
	require.NoError(t, err)

	got, _ = l.Get(p.ID)
	assert.InDelta(t, 1.0840, *got.Trailing.Level, 1e-9)
}

func TestTrailingKeepsTighterManualStop(t *testing.T) {
	l := newLedger(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p := l.Open(OpenRequest{
		Symbol:    "EURUSD",
		Side:      orders.Buy,
		Volume:    0.1,
		FillPrice: 1.0850,
		StopLoss:  fp(1.0868), // tighter than the first trailing level
		Trailing:  Trailing{Enabled: true, Distance: 10, Step: 5},
		Time:      t0,
	})

	applyBid(t, l, "EURUSD", 1.0870, t0.Add(time.Second)) // level 1.0860 < stop

	got, _ := l.Get(p.ID)
	assert.InDelta(t, 1.0868, *got.StopLoss, 1e-9)

	applyBid(t, l, "EURUSD", 1.0890, t0.Add(2*time.Second)) // level 1.0880 > stop

	got, _ = l.Get(p.ID)
	assert.InDelta(t, 1.0880, *got.StopLoss, 1e-9)
}

func TestTrailingDisabledIsInert(t *testing.T) {
	l := newLedger(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p := l.Open(OpenRequest{
		Symbol:    "EURUSD",
		Side:      orders.Buy,
		Volume:    0.1,
		FillPrice: 1.0850,
		StopLoss:  fp(1.0800),
		Trailing:  Trailing{Enabled: false, Distance: 10, Step: 5},
		Time:      t0,
	})

	applyBid(t, l, "EURUSD", 1.0950, t0.Add(time.Second))

	got, _ := l.Get(p.ID)
	assert.Nil(t, got.Trailing.Level)
	assert.InDelta(t, 1.0800, *got.StopLoss, 1e-9)
}

func TestDisablingFreezesStopLoss(t *testing.T) {
	l := newLedger(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p := l.Open(OpenRequest{
		Symbol:    "EURUSD",
		Side:      orders.Buy,
		Volume:    0.1,
		FillPrice: 1.0850,
		Trailing:  Trailing{Enabled: true, Distance: 10, Step: 5},
		Time:      t0,
	})

	applyBid(t, l, "EURUSD", 1.0870, t0.Add(time.Second))
	got, _ := l.Get(p.ID)
	frozen := *got.StopLoss

	_, err := l.Modify(p.ID, Update{Trailing: &Trailing{Enabled: false, Distance: 10, Step: 5}})
	require.NoError(t, err)

	applyBid(t, l, "EURUSD", 1.0990, t0.Add(2*time.Second))

	got, _ = l.Get(p.ID)
	assert.InDelta(t, frozen, *got.StopLoss, 1e-9)
}
