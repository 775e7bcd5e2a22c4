package participant

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

func TestRegisterAndBalances(t *testing.T) {
	r := NewRegistry("BTC", "USD")
	r.Register(1, "alice")

	require.NoError(t, r.Credit(1, "USD", decimal.NewFromInt(1000)))
	bal, err := r.Balance(1, "USD")
	require.NoError(t, err)
	require.True(t, bal.Equal(decimal.NewFromInt(1000)))

	_, err = r.Balance(2, "USD")
	require.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestApplyExecutionSettlesBothParties(t *testing.T) {
	r := NewRegistry("BTC", "USD")
	r.Register(1, "buyer")
	r.Register(2, "seller")
	r.TrackOrder(10, 1) // buyer's taker order
	r.TrackOrder(20, 2) // seller's resting order

	ev := engine.ExecutionEvent{
		Type: engine.EventFilled,
		Side: orderbook.BUY,
		Fills: []engine.Fill{{
			CounterID: 20,
			Price:     orderbook.NewPriceLevel(decimal.RequireFromString("100.00")),
			Quantity:  decimal.NewFromInt(2),
		}},
	}
	ev.Order.ID = 10
	r.ApplyExecution(ev)

	base, _ := r.Balance(1, "BTC")
	quote, _ := r.Balance(1, "USD")
	require.True(t, base.Equal(decimal.NewFromInt(2)), "buyer receives base")
	require.True(t, quote.Equal(decimal.NewFromInt(-200)), "buyer pays quote")

	base, _ = r.Balance(2, "BTC")
	quote, _ = r.Balance(2, "USD")
	require.True(t, base.Equal(decimal.NewFromInt(-2)), "seller gives base")
	require.True(t, quote.Equal(decimal.NewFromInt(200)), "seller receives quote")
}

func TestOwnerLookupIsOneWay(t *testing.T) {
	r := NewRegistry("BTC", "USD")
	r.Register(7, "carol")
	r.TrackOrder(99, 7)

	owner, ok := r.OwnerOf(99)
	require.True(t, ok)
	require.Equal(t, uint64(7), owner)

	_, ok = r.OwnerOf(100)
	require.False(t, ok)

	r.UntrackOrder(99)
	_, ok = r.OwnerOf(99)
	require.False(t, ok, "untracked order must have no owner")
}
