package bulk

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"riskledger/ledger"
)

// Header is the fixed export column set consumed by the export/backup
// collaborators.
var Header = []string{
	"Symbol", "Side", "Volume", "Open Price", "Current Price",
	"P&L", "P&L %", "Swap", "Commission", "Open Time", "Comment",
}

type csvWriter struct {
	w *csv.Writer
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) writeHeader() error {
	return c.w.Write(Header)
}

// writePosition formats one row: prices to 5 decimals, all other numerics
// to 2, open time in RFC 3339.
func (c *csvWriter) writePosition(p ledger.Position) error {
	return c.w.Write([]string{
		p.Symbol,
		string(p.Side),
		f2(p.Volume),
		f5(p.OpenPrice),
		f5(p.CurrentPrice),
		f2(p.PL),
		f2(p.PLPercent),
		f2(p.Swap),
		f2(p.Commission),
		p.OpenTime.UTC().Format(time.RFC3339),
		p.Comment,
	})
}

func (c *csvWriter) flush() error {
	c.w.Flush()
	return c.w.Error()
}

func f2(x float64) string { return strconv.FormatFloat(x, 'f', 2, 64) }
func f5(x float64) string { return strconv.FormatFloat(x, 'f', 5, 64) }
