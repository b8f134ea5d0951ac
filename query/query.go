// Package query is a pure filter/sort/pagination engine over position
// snapshots. It never touches ledger state; callers pass in a snapshot and
// get back a page plus the filtered total.
package query

import (
	"sort"
	"strings"
	"time"

	"riskledger/ledger"
	"riskledger/orders"
)

// Filter is a conjunction of independent predicates. Zero-valued or nil
// fields are no-ops.
type Filter struct {
	Symbol     string // case-insensitive substring
	Side       orders.Side
	MinVolume  *float64
	MaxVolume  *float64
	MinPL      *float64
	MaxPL      *float64
	OpenAfter  *time.Time
	OpenBefore *time.Time
}

func (f Filter) match(p ledger.Position) bool {
	if f.Symbol != "" && !strings.Contains(strings.ToLower(p.Symbol), strings.ToLower(f.Symbol)) {
		return false
	}
	if f.Side != "" && p.Side != f.Side {
		return false
	}
	if f.MinVolume != nil && p.Volume < *f.MinVolume {
		return false
	}
	if f.MaxVolume != nil && p.Volume > *f.MaxVolume {
		return false
	}
	if f.MinPL != nil && p.PL < *f.MinPL {
		return false
	}
	if f.MaxPL != nil && p.PL > *f.MaxPL {
		return false
	}
	if f.OpenAfter != nil && p.OpenTime.Before(*f.OpenAfter) {
		return false
	}
	if f.OpenBefore != nil && !p.OpenTime.Before(*f.OpenBefore) {
		return false
	}
	return true
}

// SortField names a sortable position field.
type SortField string

const (
	BySymbol    SortField = "symbol"
	ByVolume    SortField = "volume"
	ByPL        SortField = "pl"
	ByOpenPrice SortField = "openPrice"
	ByOpenTime  SortField = "openTime"
)

type Sort struct {
	Field SortField
	Desc  bool
}

// Page is a 1-based page request. Size <= 0 falls back to DefaultPageSize.
type Page struct {
	Number int
	Size   int
}

const DefaultPageSize = 20

// Result is one page of positions plus the total count after filtering.
type Result struct {
	Items      []ledger.Position
	Total      int
	Page       int
	TotalPages int
}

// Apply filters, sorts, and paginates a snapshot. Sorting is stable with an
// ID tie-break, so pagination is deterministic across calls for the same
// snapshot. The page number is clamped to the valid range.
func Apply(positions []ledger.Position, f Filter, s Sort, page Page) Result {
	filtered := make([]ledger.Position, 0, len(positions))
	for _, p := range positions {
		if f.match(p) {
			filtered = append(filtered, p)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if less, ok := compare(a, b, s.Field); ok {
			if s.Desc {
				return !less
			}
			return less
		}
		return a.ID < b.ID
	})

	size := page.Size
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(filtered)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	n := page.Number
	if n < 1 {
		n = 1
	}
	if n > totalPages {
		n = totalPages
	}

	start := (n - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result{
		Items:      filtered[start:end],
		Total:      total,
		Page:       n,
		TotalPages: totalPages,
	}
}

// compare returns (a < b, comparable). Equal values report ok=false so the
// caller falls through to the ID tie-break.
func compare(a, b ledger.Position, field SortField) (bool, bool) {
	switch field {
	case BySymbol:
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol, true
		}
	case ByVolume:
		if a.Volume != b.Volume {
			return a.Volume < b.Volume, true
		}
	case ByPL:
		if a.PL != b.PL {
			return a.PL < b.PL, true
		}
	case ByOpenPrice:
		if a.OpenPrice != b.OpenPrice {
			return a.OpenPrice < b.OpenPrice, true
		}
	case ByOpenTime:
		if !a.OpenTime.Equal(b.OpenTime) {
			return a.OpenTime.Before(b.OpenTime), true
		}
	}
	return false, false
}
