package marketdata

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

func TestBuildSnapshotAndTop(t *testing.T) {
	book := orderbook.NewOrderBook()
	book.Insert(&orderbook.OrderRecord{
		ID:       1,
		Price:    orderbook.NewPriceLevel(decimal.RequireFromString("99.50")),
		Quantity: decimal.NewFromInt(10),
		Kind:     orderbook.LIMIT,
	}, orderbook.BUY)
	book.Insert(&orderbook.OrderRecord{
		ID:       2,
		Price:    orderbook.NewPriceLevel(decimal.RequireFromString("100.25")),
		Quantity: decimal.NewFromInt(4),
		Kind:     orderbook.LIMIT,
	}, orderbook.SELL)

	snap := BuildSnapshot("BTC-USD", book, 10)
	if len(snap.Bids) != 1 || len(snap.Asks) != 1 {
		t.Fatalf("expected one level per side, got %d/%d", len(snap.Bids), len(snap.Asks))
	}

	top := snap.Top()
	if top.BestBid == nil || top.BestAsk == nil {
		t.Fatal("expected both sides of top-of-book")
	}
	if !top.Spread.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("expected spread 0.75, got %s", top.Spread)
	}
}

func TestTopWithEmptySide(t *testing.T) {
	book := orderbook.NewOrderBook()
	top := BuildSnapshot("BTC-USD", book, 10).Top()
	if top.BestBid != nil || top.BestAsk != nil {
		t.Fatal("empty book should have no best levels")
	}
	if !top.Spread.IsZero() {
		t.Errorf("expected zero spread, got %s", top.Spread)
	}
}
