package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

// EventType is the result vocabulary for one processed intent.
type EventType string

const (
	// EventAccepted: a limit order rested with no fills.
	EventAccepted EventType = "Accepted"
	// EventPartiallyFilled: some quantity traded, some remains (rested for
	// limit orders, discarded for market orders).
	EventPartiallyFilled EventType = "PartiallyFilled"
	// EventFilled: the incoming order traded its full quantity.
	EventFilled    EventType = "Filled"
	EventCancelled EventType = "Cancelled"
	EventUpdated   EventType = "Updated"
	EventRejected  EventType = "Rejected"
)

// RejectReason tags a Rejected event. Rejections are ordinary results, never
// engine failures, and a rejected intent leaves the book untouched.
type RejectReason string

const (
	ReasonInvalidQuantity RejectReason = "InvalidQuantity"
	ReasonNotFound        RejectReason = "NotFound"
	ReasonNoLiquidity     RejectReason = "NoLiquidity"
	// ReasonDuplicateID guards the identity contract: incoming ids must be
	// globally unique, so an id already resting in the book is refused
	// before any matching happens.
	ReasonDuplicateID RejectReason = "DuplicateID"
	// ReasonInvalidKind: only limit orders rest, so a replacement in an
	// update must be a limit order.
	ReasonInvalidKind RejectReason = "InvalidKind"
)

// Fill is one trade against a resting counterparty. The trade prints at the
// resting order's price.
type Fill struct {
	CounterID uint64               `json:"counter_id"`
	Price     orderbook.PriceLevel `json:"price"`
	Quantity  decimal.Decimal      `json:"quantity"`
}

// ExecutionEvent is returned to the caller once per processed intent. It
// carries detached copies only; the engine retains nothing and callers never
// receive a handle into book storage.
type ExecutionEvent struct {
	Type      EventType             `json:"type"`
	Side      orderbook.Side        `json:"side,omitempty"`
	Order     orderbook.OrderRecord `json:"order"`
	OldID     uint64                `json:"old_id,omitempty"` // Updated only
	Fills     []Fill                `json:"fills,omitempty"`
	Reason    RejectReason          `json:"reason,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// FilledQuantity sums the event's fills.
func (ev ExecutionEvent) FilledQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, f := range ev.Fills {
		total = total.Add(f.Quantity)
	}
	return total
}

func rejected(rec *orderbook.OrderRecord, side orderbook.Side, reason RejectReason) ExecutionEvent {
	ev := ExecutionEvent{Type: EventRejected, Side: side, Reason: reason, Timestamp: time.Now()}
	if rec != nil {
		ev.Order = rec.Snapshot()
	}
	return ev
}
