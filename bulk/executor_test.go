package bulk

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskledger/ledger"
	"riskledger/orders"
)

func fp(v float64) *float64 { return &v }

func seed(t *testing.T) (*ledger.Ledger, []string) {
	t.Helper()

	l := ledger.New()
	l.SetThrottle(0, nil)

	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reqs := []ledger.OpenRequest{
		{Symbol: "EURUSD", Side: orders.Buy, Volume: 0.1, FillPrice: 1.0850, Time: t0, Comment: "first"},
		{Symbol: "GBPUSD", Side: orders.Sell, Volume: 0.5, FillPrice: 1.2700, Time: t0.Add(time.Minute)},
		{Symbol: "USDJPY", Side: orders.Buy, Volume: 1.0, FillPrice: 150.00, Time: t0.Add(2 * time.Minute)},
	}

	var ids []string
	for _, r := range reqs {
		ids = append(ids, l.Open(r).ID)
	}
	return l, ids
}

func TestBulkClosePartialFailure(t *testing.T) {
	l, ids := seed(t)
	ex := NewExecutor(l)

	res, err := ex.Close(context.Background(), []string{ids[0], "missing"})
	require.NoError(t, err)

	assert.Equal(t, []string{ids[0]}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "missing", res.Failed[0].ID)
	assert.ErrorIs(t, res.Failed[0].Err, ledger.ErrNotFound)

	// The other positions were untouched.
	assert.Len(t, l.Positions(), 2)
}

// Succeeded/failed sets must not depend on where the failures sit in the
// target list.
func TestBulkCloseFailureOrderIndependent(t *testing.T) {
	orderings := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}

	for _, ord := range orderings {
		l, ids := seed(t)
		ex := NewExecutor(l)

		targets := []string{"ghost-a", "ghost-b"}
		for _, i := range ord {
			targets = append(targets, ids[i])
		}

		res, err := ex.Close(context.Background(), targets)
		require.NoError(t, err)

		assert.ElementsMatch(t, ids, res.Succeeded)
		assert.Len(t, res.Failed, 2)
	}
}

func TestBulkModify(t *testing.T) {
	l, ids := seed(t)
	ex := NewExecutor(l)

	res, err := ex.Modify(context.Background(), []string{ids[0], ids[1], "missing"}, ledger.Update{
		StopLoss: fp(1.0000),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{ids[0], ids[1]}, res.Succeeded)
	require.Len(t, res.Failed, 1)

	p, err := l.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1.0000, *p.StopLoss)
}

func TestBulkCancellation(t *testing.T) {
	l, ids := seed(t)
	ex := NewExecutor(l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ex.Close(ctx, ids)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Succeeded)
	assert.Empty(t, res.Failed)

	// Nothing was closed.
	assert.Len(t, l.Positions(), 3)
}

func TestExportRowOrderAndFormat(t *testing.T) {
	l, ids := seed(t)
	ex := NewExecutor(l)

	var buf bytes.Buffer
	// Deliberately reversed order with a missing id in the middle.
	res, err := ex.Export(context.Background(), []string{ids[2], "missing", ids[0]}, &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{ids[2], ids[0]}, res.Succeeded)
	require.Len(t, res.Failed, 1)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Header, rows[0])

	// Row order matches the requested id order.
	assert.Equal(t, "USDJPY", rows[1][0])
	assert.Equal(t, "EURUSD", rows[2][0])

	// Prices carry five decimals, other numerics two.
	assert.Equal(t, "150.00000", rows[1][3])
	assert.Equal(t, "1.00", rows[1][2])
	assert.Equal(t, "0.10", rows[2][2])
	assert.Equal(t, "first", rows[2][10])

	_, err = time.Parse(time.RFC3339, rows[1][9])
	assert.NoError(t, err)
}

func TestExportDoesNotMutate(t *testing.T) {
	l, ids := seed(t)
	ex := NewExecutor(l)

	before := l.Positions()
	var buf bytes.Buffer
	_, err := ex.Export(context.Background(), ids, &buf)
	require.NoError(t, err)

	assert.Equal(t, before, l.Positions())
}

// Re-parsing an export must reproduce the source (symbol, side, volume,
// open price) tuples.
func TestExportRoundTrip(t *testing.T) {
	l, ids := seed(t)
	ex := NewExecutor(l)

	var buf bytes.Buffer
	_, err := ex.Export(context.Background(), ids, &buf)
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(ids)+1)

	type tuple struct {
		symbol, side string
		volume, open float64
	}

	var got []tuple
	for _, row := range rows[1:] {
		volume, err := strconv.ParseFloat(row[2], 64)
		require.NoError(t, err)
		open, err := strconv.ParseFloat(row[3], 64)
		require.NoError(t, err)
		got = append(got, tuple{row[0], row[1], volume, open})
	}

	var want []tuple
	for _, id := range ids {
		p, err := l.Get(id)
		require.NoError(t, err)
		want = append(want, tuple{p.Symbol, string(p.Side), p.Volume, p.OpenPrice})
	}
	assert.Equal(t, want, got)
}
