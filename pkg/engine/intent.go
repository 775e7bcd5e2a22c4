package engine

import (
	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

// IntentKind is a closed set of order actions. Matching behavior per kind is
// fixed, so the engine switches over it exhaustively instead of dispatching
// through an open interface.
type IntentKind string

const (
	IntentBuy    IntentKind = "BUY"
	IntentSell   IntentKind = "SELL"
	IntentCancel IntentKind = "CANCEL"
	IntentUpdate IntentKind = "UPDATE"
)

// Intent is one decoded instruction for the engine. The side lives in the
// kind tag (or Side for cancel/update), never inside the record, so the book
// can never store a record with an ambiguous side.
type Intent struct {
	Kind   IntentKind
	Order  *orderbook.OrderRecord // buy/sell, and the replacement for update
	PrevID uint64                 // cancel/update target
	Side   orderbook.Side         // cancel/update side
}

// BuyIntent submits a new buy order.
func BuyIntent(rec *orderbook.OrderRecord) Intent {
	return Intent{Kind: IntentBuy, Order: rec}
}

// SellIntent submits a new sell order.
func SellIntent(rec *orderbook.OrderRecord) Intent {
	return Intent{Kind: IntentSell, Order: rec}
}

// CancelIntent removes the resting order prevID from the given side.
func CancelIntent(prevID uint64, side orderbook.Side) Intent {
	return Intent{Kind: IntentCancel, PrevID: prevID, Side: side}
}

// UpdateIntent replaces resting order prevID with rec on the same side.
// rec carries a freshly assigned id; the replacement goes to the back of its
// price level's queue, deliberately resetting time priority.
func UpdateIntent(prevID uint64, side orderbook.Side, rec *orderbook.OrderRecord) Intent {
	return Intent{Kind: IntentUpdate, Order: rec, PrevID: prevID, Side: side}
}

// TakerSide maps buy/sell intents to their book side.
func (in Intent) TakerSide() orderbook.Side {
	if in.Kind == IntentBuy {
		return orderbook.BUY
	}
	return orderbook.SELL
}
