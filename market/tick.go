package market

import (
	"errors"
	"sync"
	"time"
)

var ErrNoPrice = errors.New("no price for symbol")

// Tick is a single bid/ask quote for a symbol. Ticks are transient inputs;
// only the last value per symbol is ever retained.
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// EntrySide returns the price a new position on the given side fills at:
// ask for a buy, bid for a sell.
func (t Tick) EntrySide(buy bool) float64 {
	if buy {
		return t.Ask
	}
	return t.Bid
}

// ExitSide returns the price an open position on the given side is marked
// and closed at: bid for a buy, ask for a sell.
func (t Tick) ExitSide(buy bool) float64 {
	if buy {
		return t.Bid
	}
	return t.Ask
}

// TickStore keeps the latest tick per symbol.
type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (s *TickStore) Set(t Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[t.Symbol] = t
}

func (s *TickStore) Get(symbol string) (Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticks[symbol]
	if !ok {
		return Tick{}, ErrNoPrice
	}
	return t, nil
}
