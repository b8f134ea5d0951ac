// Package bulk applies one action to a selected set of positions with
// per-item result accounting. Execution is best-effort: one item's failure
// never aborts the rest, and callers must not assume all-or-nothing.
package bulk

import (
	"context"
	"io"

	"riskledger/ledger"
)

// Failure records why one item could not be processed.
type Failure struct {
	ID  string
	Err error
}

// Result reports both outcome lists. For the same target set and ledger
// state the succeeded/failed sets are identical regardless of processing
// order.
type Result struct {
	Succeeded []string
	Failed    []Failure
}

type Executor struct {
	ledger *ledger.Ledger
}

func NewExecutor(l *ledger.Ledger) *Executor {
	return &Executor{ledger: l}
}

// Close closes each target position. Cancellation is honored between items;
// completed results remain valid and are returned alongside ctx.Err().
func (e *Executor) Close(ctx context.Context, ids []string) (Result, error) {
	var res Result
	for _, pid := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := e.ledger.Close(pid, "BulkClose"); err != nil {
			res.Failed = append(res.Failed, Failure{ID: pid, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, pid)
	}
	return res, nil
}

// Modify applies the same update to each target position.
func (e *Executor) Modify(ctx context.Context, ids []string, u ledger.Update) (Result, error) {
	var res Result
	for _, pid := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := e.ledger.Modify(pid, u); err != nil {
			res.Failed = append(res.Failed, Failure{ID: pid, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, pid)
	}
	return res, nil
}

// Export writes exactly the named positions as CSV, in the given id order.
// It never mutates the ledger.
func (e *Executor) Export(ctx context.Context, ids []string, w io.Writer) (Result, error) {
	var res Result

	cw := newCSVWriter(w)
	if err := cw.writeHeader(); err != nil {
		return res, err
	}

	for _, pid := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p, err := e.ledger.Get(pid)
		if err != nil {
			res.Failed = append(res.Failed, Failure{ID: pid, Err: err})
			continue
		}
		if err := cw.writePosition(p); err != nil {
			res.Failed = append(res.Failed, Failure{ID: pid, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, pid)
	}

	if err := cw.flush(); err != nil {
		return res, err
	}
	return res, nil
}
