package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"riskledger/journal"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export closed positions from a SQLite journal as CSV",
	Long: `Export dumps closed-position records from a SQLite journal to
stdout as CSV, filtered by close time.

Example:
  riskledger export --db journal.db --from 2026-01-01 --to 2026-02-01`,
	RunE: runExport,
}

var (
	exportDBPath string
	exportFrom   string
	exportTo     string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "path to SQLite journal (required)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "start date, inclusive (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "end date, exclusive (YYYY-MM-DD)")
	exportCmd.MarkFlagRequired("db")
}

func runExport(cmd *cobra.Command, args []string) error {
	from := time.Time{}
	to := time.Now().AddDate(100, 0, 0)

	var err error
	if exportFrom != "" {
		from, err = time.Parse("2006-01-02", exportFrom)
		if err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
	}
	if exportTo != "" {
		to, err = time.Parse("2006-01-02", exportTo)
		if err != nil {
			return fmt.Errorf("parse --to: %w", err)
		}
	}

	j, err := journal.NewSQLite(exportDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	recs, err := j.ListClosedBetween(from, to)
	if err != nil {
		return fmt.Errorf("list closes: %w", err)
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"position_id", "symbol", "side", "volume", "open_price", "close_price", "open_time", "close_time", "realized_pl", "reason"}); err != nil {
		return err
	}
	for _, r := range recs {
		if err := w.Write([]string{
			r.PositionID,
			r.Symbol,
			r.Side,
			strconv.FormatFloat(r.Volume, 'f', 2, 64),
			strconv.FormatFloat(r.OpenPrice, 'f', 5, 64),
			strconv.FormatFloat(r.ClosePrice, 'f', 5, 64),
			r.OpenTime.UTC().Format(time.RFC3339),
			r.CloseTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.RealizedPL, 'f', 2, 64),
			r.Reason,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
