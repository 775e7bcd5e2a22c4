package orderbook

import (
	"github.com/gammazero/deque"
	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

const levelTreeDegree = 16

// bookLevel holds the FIFO queue of resting orders at one price. IDs are
// monotonic, so appending keeps the queue in ascending-id (time priority)
// order.
type bookLevel struct {
	price PriceLevel
	queue deque.Deque[*OrderRecord]
}

// bookSide is one half of the book: a price-ordered tree of levels plus an
// id index for O(log n) cancel lookups.
type bookSide struct {
	levels *btree.BTreeG[*bookLevel]
	index  map[uint64]*bookLevel
}

func newBookSide(less func(a, b PriceLevel) bool) *bookSide {
	return &bookSide{
		levels: btree.NewG(levelTreeDegree, func(a, b *bookLevel) bool {
			return less(a.price, b.price)
		}),
		index: make(map[uint64]*bookLevel),
	}
}

// OrderBook keeps the two price-time-ordered sides of a single instrument.
// Bids iterate best-first from the highest price, asks from the lowest.
// The book is not safe for concurrent use; the matching engine owns the
// only instance and serializes all access (see engine.Loop).
type OrderBook struct {
	bids *bookSide
	asks *bookSide
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: newBookSide(func(a, b PriceLevel) bool { return b.Less(a) }),
		asks: newBookSide(func(a, b PriceLevel) bool { return a.Less(b) }),
	}
}

func (ob *OrderBook) side(s Side) *bookSide {
	if s == BUY {
		return ob.bids
	}
	return ob.asks
}

// Insert rests a record on the given side. The record must still have
// remaining quantity and its id must not already be present on either side;
// violating either is a caller error and nothing is inserted.
func (ob *OrderBook) Insert(rec *OrderRecord, side Side) error {
	if rec.Done() {
		return ErrFullyFilled
	}
	if ob.Contains(rec.ID) {
		return ErrDuplicateID
	}

	bs := ob.side(side)
	probe := &bookLevel{price: rec.Price}
	level, ok := bs.levels.Get(probe)
	if !ok {
		level = probe
		bs.levels.ReplaceOrInsert(level)
	}
	level.queue.PushBack(rec)
	bs.index[rec.ID] = level
	return nil
}

// Remove takes the record with the given id off the given side and returns
// it. The second result is false when the id is not resting there, the
// common failure case for cancels and the replace phase of updates.
func (ob *OrderBook) Remove(id uint64, side Side) (*OrderRecord, bool) {
	bs := ob.side(side)
	level, ok := bs.index[id]
	if !ok {
		return nil, false
	}

	at := level.queue.Index(func(r *OrderRecord) bool { return r.ID == id })
	if at < 0 {
		return nil, false
	}
	rec := level.queue.Remove(at)
	delete(bs.index, id)
	if level.queue.Len() == 0 {
		bs.levels.Delete(level)
	}
	return rec, true
}

// Contains reports whether an id is resting on either side.
func (ob *OrderBook) Contains(id uint64) bool {
	if _, ok := ob.bids.index[id]; ok {
		return true
	}
	_, ok := ob.asks.index[id]
	return ok
}

// Len is the number of resting orders on the given side.
func (ob *OrderBook) Len(side Side) int {
	return len(ob.side(side).index)
}

// Best returns the highest time priority record at the top-of-book price of
// the given side: lowest ask or highest bid, earliest id within that level.
func (ob *OrderBook) Best(side Side) (*OrderRecord, bool) {
	level, ok := ob.side(side).levels.Min()
	if !ok || level.queue.Len() == 0 {
		return nil, false
	}
	return level.queue.Front(), true
}

// crosses applies the crossing rule for a taker of the given side and kind:
// a buy crosses an ask priced at or below its limit, a sell crosses a bid
// priced at or above it. Market orders cross any counter price.
func crosses(taker Side, kind OrderKind, limit, counter PriceLevel) bool {
	if kind == MARKET {
		return true
	}
	if taker == BUY {
		return counter.Cmp(limit) <= 0
	}
	return counter.Cmp(limit) >= 0
}

// EachCrossing walks the counter side of a taker in strict price-time order
// (best price first, lowest id within a level) and calls fn for every
// resting record whose price crosses the taker's limit. Iteration stops at
// the first level that fails the crossing test, or when fn returns false.
// fn must not mutate the book; matching uses FirstCrossing plus explicit
// Remove instead.
func (ob *OrderBook) EachCrossing(taker Side, kind OrderKind, limit PriceLevel, fn func(*OrderRecord) bool) {
	bs := ob.side(taker.Opposite())
	bs.levels.Ascend(func(level *bookLevel) bool {
		if !crosses(taker, kind, limit, level.price) {
			return false
		}
		for i := 0; i < level.queue.Len(); i++ {
			if !fn(level.queue.At(i)) {
				return false
			}
		}
		return true
	})
}

// FirstCrossing returns the single best eligible counter record for the
// taker, or false when the opposing side is exhausted or its best price no
// longer crosses.
func (ob *OrderBook) FirstCrossing(taker Side, kind OrderKind, limit PriceLevel) (*OrderRecord, bool) {
	counter, ok := ob.Best(taker.Opposite())
	if !ok || !crosses(taker, kind, limit, counter.Price) {
		return nil, false
	}
	return counter, true
}

// LevelView is an aggregated, detached view of one price level.
type LevelView struct {
	Price    PriceLevel      `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int             `json:"orders"`
}

// Levels aggregates up to max price levels of a side, best first. max <= 0
// means all levels.
func (ob *OrderBook) Levels(side Side, max int) []LevelView {
	var views []LevelView
	ob.side(side).levels.Ascend(func(level *bookLevel) bool {
		view := LevelView{Price: level.price, Orders: level.queue.Len()}
		for i := 0; i < level.queue.Len(); i++ {
			view.Quantity = view.Quantity.Add(level.queue.At(i).Remaining())
		}
		views = append(views, view)
		return max <= 0 || len(views) < max
	})
	return views
}
