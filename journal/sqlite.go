package journal

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordClose(r ClosedRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO closes
		(position_id, symbol, side, volume, open_price, close_price, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PositionID, r.Symbol, r.Side, r.Volume, r.OpenPrice,
		r.ClosePrice, r.OpenTime, r.CloseTime, r.RealizedPL, r.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	// SQLite has no +Inf literal worth round-tripping; store the no-margin
	// sentinel as a very large level instead.
	level := e.MarginLevel
	if math.IsInf(level, 1) {
		level = math.MaxFloat64
	}

	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, balance, equity, margin_used, free_margin, margin_level)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time, e.Balance, e.Equity, e.MarginUsed, e.FreeMargin, level,
	)
	return err
}

// GetClose returns a single closed-position record.
func (j *SQLite) GetClose(positionID string) (ClosedRecord, error) {
	var r ClosedRecord

	row := j.db.QueryRow(`
		SELECT position_id, symbol, side, volume, open_price, close_price, open_time, close_time, realized_pl, reason
		FROM closes
		WHERE position_id = ?`, positionID)

	err := row.Scan(
		&r.PositionID, &r.Symbol, &r.Side, &r.Volume, &r.OpenPrice,
		&r.ClosePrice, &r.OpenTime, &r.CloseTime, &r.RealizedPL, &r.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return ClosedRecord{}, fmt.Errorf("close %q not found", positionID)
		}
		return ClosedRecord{}, err
	}
	return r, nil
}

// ListClosedBetween returns closes whose close_time is within [start, end).
func (j *SQLite) ListClosedBetween(start, end time.Time) ([]ClosedRecord, error) {
	rows, err := j.db.Query(`
		SELECT position_id, symbol, side, volume, open_price, close_price, open_time, close_time, realized_pl, reason
		FROM closes
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClosedRecord
	for rows.Next() {
		var r ClosedRecord
		if err := rows.Scan(
			&r.PositionID, &r.Symbol, &r.Side, &r.Volume, &r.OpenPrice,
			&r.ClosePrice, &r.OpenTime, &r.CloseTime, &r.RealizedPL, &r.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
