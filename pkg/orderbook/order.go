package orderbook

import (
	"github.com/shopspring/decimal"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

// Opposite returns the counter side used for matching.
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

type OrderKind string

const (
	LIMIT  OrderKind = "LIMIT"
	MARKET OrderKind = "MARKET"
)

// OrderRecord is a single order as the book stores it. IDs are assigned by
// the ingestion side, globally unique and monotonically non-decreasing, so
// FIFO append order within a price level is also ascending-id order.
//
// Filled is mutated only by the matching engine; a record with
// Filled == Quantity never rests in the book.
type OrderRecord struct {
	ID       uint64
	PrevID   uint64 // references the replaced/cancelled record, update and cancel only
	Price    PriceLevel
	Quantity decimal.Decimal
	Filled   decimal.Decimal
	Kind     OrderKind
}

// Remaining is the unfilled quantity.
func (r *OrderRecord) Remaining() decimal.Decimal {
	return r.Quantity.Sub(r.Filled)
}

// Done reports whether the record has no remaining quantity.
func (r *OrderRecord) Done() bool {
	return !r.Remaining().IsPositive()
}

// Snapshot returns a detached copy safe to hand outside the book.
func (r *OrderRecord) Snapshot() OrderRecord {
	return *r
}
