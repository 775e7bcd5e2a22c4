package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

const (
	numOrders = 1_000_000
	minPrice  = 100.0
	maxPrice  = 200.0
	minQty    = 1
	maxQty    = 100
)

func randomIntent(id uint64) engine.Intent {
	price := orderbook.NewPriceLevel(decimal.NewFromFloat(minPrice + rand.Float64()*(maxPrice-minPrice)))
	rec := &orderbook.OrderRecord{
		ID:       id,
		Price:    price,
		Quantity: decimal.NewFromInt(int64(rand.Intn(maxQty-minQty+1) + minQty)),
		Kind:     orderbook.LIMIT,
	}
	if rand.Intn(2) == 0 {
		return engine.SellIntent(rec)
	}
	return engine.BuyIntent(rec)
}

func main() {
	book := orderbook.NewOrderBook()
	eng := engine.NewMatchingEngine(book, nil)

	totalTrades := 0
	totalQty := decimal.Zero
	eng.RegisterEventCallback(func(ev engine.ExecutionEvent) {
		for _, fill := range ev.Fills {
			totalTrades++
			totalQty = totalQty.Add(fill.Quantity)
		}
	})

	start := time.Now()
	for i := uint64(1); i <= numOrders; i++ {
		eng.Process(randomIntent(i))
	}
	elapsed := time.Since(start)

	fmt.Println("--------")
	fmt.Printf("orders    : %d\n", numOrders)
	fmt.Printf("trades    : %d\n", totalTrades)
	fmt.Printf("traded qty: %s\n", totalQty)
	fmt.Printf("elapsed   : %s\n", elapsed)
	fmt.Printf("rate      : %.0f orders/s\n", float64(numOrders)/elapsed.Seconds())
}
