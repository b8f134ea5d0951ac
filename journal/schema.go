package journal

const schema = `
CREATE TABLE IF NOT EXISTS closes (
	position_id TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL,
	volume      REAL NOT NULL,
	open_price  REAL NOT NULL,
	close_price REAL NOT NULL,
	open_time   TIMESTAMP NOT NULL,
	close_time  TIMESTAMP NOT NULL,
	realized_pl REAL NOT NULL,
	reason      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_closes_close_time ON closes(close_time);

CREATE TABLE IF NOT EXISTS equity (
	time         TIMESTAMP NOT NULL,
	balance      REAL NOT NULL,
	equity       REAL NOT NULL,
	margin_used  REAL NOT NULL,
	free_margin  REAL NOT NULL,
	margin_level REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
