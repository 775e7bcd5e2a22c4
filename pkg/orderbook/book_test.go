package orderbook

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func limitOrder(id uint64, price string, qty int64) *OrderRecord {
	return &OrderRecord{
		ID:       id,
		Price:    NewPriceLevel(decimal.RequireFromString(price)),
		Quantity: decimal.NewFromInt(qty),
		Kind:     LIMIT,
	}
}

func TestInsertAndBest(t *testing.T) {
	ob := NewOrderBook()

	for i, price := range []string{"101.00", "99.00", "100.00"} {
		if err := ob.Insert(limitOrder(uint64(i+1), price, 10), SELL); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	best, ok := ob.Best(SELL)
	if !ok {
		t.Fatal("expected a best ask")
	}
	if best.Price.String() != "99.00" {
		t.Errorf("expected best ask 99.00, got %s", best.Price)
	}

	ob.Insert(limitOrder(4, "50.00", 5), BUY)
	ob.Insert(limitOrder(5, "52.00", 5), BUY)
	best, _ = ob.Best(BUY)
	if best.Price.String() != "52.00" {
		t.Errorf("expected best bid 52.00, got %s", best.Price)
	}
}

func TestInsertRejectsFilledAndDuplicate(t *testing.T) {
	ob := NewOrderBook()

	done := limitOrder(1, "100.00", 10)
	done.Filled = done.Quantity
	if err := ob.Insert(done, BUY); err != ErrFullyFilled {
		t.Fatalf("expected ErrFullyFilled, got %v", err)
	}

	if err := ob.Insert(limitOrder(2, "100.00", 10), BUY); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ob.Insert(limitOrder(2, "101.00", 10), SELL); err != ErrDuplicateID {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestRemovePrunesEmptyLevel(t *testing.T) {
	ob := NewOrderBook()
	ob.Insert(limitOrder(1, "100.00", 10), SELL)

	rec, ok := ob.Remove(1, SELL)
	if !ok || rec.ID != 1 {
		t.Fatalf("expected to remove order 1, got %v %v", rec, ok)
	}
	if _, ok := ob.Remove(1, SELL); ok {
		t.Fatal("second remove should report not found")
	}
	if _, ok := ob.Best(SELL); ok {
		t.Fatal("empty level must not remain matchable")
	}
	if ob.Len(SELL) != 0 {
		t.Fatalf("expected empty side, got %d", ob.Len(SELL))
	}
}

func TestTimePriorityWithinLevel(t *testing.T) {
	ob := NewOrderBook()
	ob.Insert(limitOrder(1, "100.00", 5), SELL)
	ob.Insert(limitOrder(2, "100.00", 5), SELL)
	ob.Insert(limitOrder(3, "100.00", 5), SELL)

	var ids []uint64
	limit := NewPriceLevel(decimal.RequireFromString("100.00"))
	ob.EachCrossing(BUY, LIMIT, limit, func(r *OrderRecord) bool {
		ids = append(ids, r.ID)
		return true
	})

	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("expected FIFO ids [1 2 3], got %v", ids)
	}
}

func TestEachCrossingStopsAtLimit(t *testing.T) {
	ob := NewOrderBook()
	ob.Insert(limitOrder(1, "100.00", 5), SELL)
	ob.Insert(limitOrder(2, "101.00", 5), SELL)
	ob.Insert(limitOrder(3, "102.00", 5), SELL)

	var seen int
	limit := NewPriceLevel(decimal.RequireFromString("101.00"))
	ob.EachCrossing(BUY, LIMIT, limit, func(r *OrderRecord) bool {
		seen++
		return true
	})
	if seen != 2 {
		t.Fatalf("expected 2 crossing asks at or below 101.00, got %d", seen)
	}

	// A market buy crosses everything.
	seen = 0
	ob.EachCrossing(BUY, MARKET, PriceLevel{}, func(r *OrderRecord) bool {
		seen++
		return true
	})
	if seen != 3 {
		t.Fatalf("expected market order to cross all 3 asks, got %d", seen)
	}
}

func TestFirstCrossingSellAgainstBids(t *testing.T) {
	ob := NewOrderBook()
	ob.Insert(limitOrder(1, "100.00", 5), BUY)
	ob.Insert(limitOrder(2, "102.00", 5), BUY)

	rec, ok := ob.FirstCrossing(SELL, LIMIT, NewPriceLevel(decimal.RequireFromString("101.00")))
	if !ok {
		t.Fatal("expected a crossing bid")
	}
	if rec.ID != 2 {
		t.Errorf("expected best bid id 2, got %d", rec.ID)
	}

	_, ok = ob.FirstCrossing(SELL, LIMIT, NewPriceLevel(decimal.RequireFromString("103.00")))
	if ok {
		t.Fatal("no bid should cross a 103.00 sell limit")
	}
}

func TestLevels(t *testing.T) {
	ob := NewOrderBook()
	ob.Insert(limitOrder(1, "100.00", 5), SELL)
	ob.Insert(limitOrder(2, "100.00", 7), SELL)
	ob.Insert(limitOrder(3, "101.00", 3), SELL)

	views := ob.Levels(SELL, 0)
	if len(views) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(views))
	}
	if !views[0].Quantity.Equal(decimal.NewFromInt(12)) || views[0].Orders != 2 {
		t.Errorf("unexpected top level %+v", views[0])
	}
	if views[1].Price.String() != "101.00" {
		t.Errorf("expected second level 101.00, got %s", views[1].Price)
	}
}

func BenchmarkInsertRemove(b *testing.B) {
	ob := NewOrderBook()
	for i := 0; i < b.N; i++ {
		id := uint64(i + 1)
		price := fmt.Sprintf("%d.00", 100+i%50)
		ob.Insert(limitOrder(id, price, 10), BUY)
		if i%2 == 0 {
			ob.Remove(id, BUY)
		}
	}
}
