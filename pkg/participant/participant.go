package participant

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

var (
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrUnknownOrder       = errors.New("order has no tracked owner")
)

// Participant is one account holding asset balances.
type Participant struct {
	ID     uint64
	Name   string
	assets map[string]decimal.Decimal
}

// Registry keeps participant balances and who owns which order. Orders carry
// no owning reference; ownership is a one-way lookup keyed by order id, so
// records and accounts never form a cycle.
type Registry struct {
	mu           sync.RWMutex
	participants map[uint64]*Participant
	ownerByOrder map[uint64]uint64
	base         string // asset traded, e.g. BTC
	quote        string // asset paid, e.g. USD
}

func NewRegistry(base, quote string) *Registry {
	return &Registry{
		participants: make(map[uint64]*Participant),
		ownerByOrder: make(map[uint64]uint64),
		base:         base,
		quote:        quote,
	}
}

// Register creates or returns the participant with the given id.
func (r *Registry) Register(id uint64, name string) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[id]; ok {
		return p
	}
	p := &Participant{ID: id, Name: name, assets: make(map[string]decimal.Decimal)}
	r.participants[id] = p
	return p
}

// Credit adds amount of asset to a participant's balance. Negative amounts
// debit.
func (r *Registry) Credit(id uint64, asset string, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return ErrUnknownParticipant
	}
	p.assets[asset] = p.assets[asset].Add(amount)
	return nil
}

// Balance reads a participant's balance of one asset.
func (r *Registry) Balance(id uint64, asset string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[id]
	if !ok {
		return decimal.Zero, ErrUnknownParticipant
	}
	return p.assets[asset], nil
}

// TrackOrder records ownership for a newly submitted order id.
func (r *Registry) TrackOrder(orderID, participantID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ownerByOrder[orderID] = participantID
}

// UntrackOrder drops the ownership entry for an order id, used when an
// order was rejected and will never settle.
func (r *Registry) UntrackOrder(orderID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ownerByOrder, orderID)
}

// OwnerOf resolves the participant that submitted an order.
func (r *Registry) OwnerOf(orderID uint64) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ownerByOrder[orderID]
	return id, ok
}

// ApplyExecution settles the fills of one event against both parties'
// balances. A buy taker receives base and pays quote at each fill's price;
// the maker mirrors it. Fills of untracked orders are skipped.
func (r *Registry) ApplyExecution(ev engine.ExecutionEvent) {
	if len(ev.Fills) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	taker := r.participants[r.ownerByOrder[ev.Order.ID]]
	for _, fill := range ev.Fills {
		maker := r.participants[r.ownerByOrder[fill.CounterID]]
		notional := fill.Quantity.Mul(fill.Price.Decimal())

		buyer, seller := taker, maker
		if ev.Side == orderbook.SELL {
			buyer, seller = maker, taker
		}
		if buyer != nil {
			buyer.assets[r.base] = buyer.assets[r.base].Add(fill.Quantity)
			buyer.assets[r.quote] = buyer.assets[r.quote].Sub(notional)
		}
		if seller != nil {
			seller.assets[r.base] = seller.assets[r.base].Sub(fill.Quantity)
			seller.assets[r.quote] = seller.assets[r.quote].Add(notional)
		}
	}
}
