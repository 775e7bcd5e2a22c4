package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

// Snapshot is an aggregated depth view of the book, best levels first.
type Snapshot struct {
	Instrument string                `json:"instrument"`
	Bids       []orderbook.LevelView `json:"bids"`
	Asks       []orderbook.LevelView `json:"asks"`
	Timestamp  time.Time             `json:"timestamp"`
}

// TopOfBook is the best level of each side plus the spread between them.
type TopOfBook struct {
	Instrument string               `json:"instrument"`
	BestBid    *orderbook.LevelView `json:"best_bid,omitempty"`
	BestAsk    *orderbook.LevelView `json:"best_ask,omitempty"`
	Spread     decimal.Decimal      `json:"spread"`
	Timestamp  time.Time            `json:"timestamp"`
}

// BuildSnapshot copies up to maxLevels levels per side out of the book.
// Callers must invoke it from the engine goroutine (or an event callback)
// since the book itself is not locked.
func BuildSnapshot(instrument string, book *orderbook.OrderBook, maxLevels int) Snapshot {
	return Snapshot{
		Instrument: instrument,
		Bids:       book.Levels(orderbook.BUY, maxLevels),
		Asks:       book.Levels(orderbook.SELL, maxLevels),
		Timestamp:  time.Now(),
	}
}

// Top reduces a snapshot to its best levels.
func (s Snapshot) Top() TopOfBook {
	top := TopOfBook{Instrument: s.Instrument, Timestamp: s.Timestamp}
	if len(s.Bids) > 0 {
		top.BestBid = &s.Bids[0]
	}
	if len(s.Asks) > 0 {
		top.BestAsk = &s.Asks[0]
	}
	if top.BestBid != nil && top.BestAsk != nil {
		top.Spread = top.BestAsk.Price.Decimal().Sub(top.BestBid.Price.Decimal())
	}
	return top
}
