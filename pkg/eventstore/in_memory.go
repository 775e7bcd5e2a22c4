package eventstore

import (
	"context"
	"sync"

	"github.com/PvPrs/matching-engine/pkg/engine"
)

type InMemoryEventStore struct {
	mu      sync.RWMutex
	events  map[uint64][]engine.ExecutionEvent
	replace map[uint64]uint64 // new id -> replaced id
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events:  make(map[uint64][]engine.ExecutionEvent),
		replace: make(map[uint64]uint64),
	}
}

func (s *InMemoryEventStore) Append(_ context.Context, ev engine.ExecutionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ev.Order.ID
	s.events[id] = append(s.events[id], ev)

	if ev.Type == engine.EventUpdated && ev.OldID != 0 {
		s.replace[id] = ev.OldID
	}
	return nil
}

func (s *InMemoryEventStore) History(_ context.Context, orderID uint64) ([]engine.ExecutionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[orderID]
	out := make([]engine.ExecutionEvent, len(evs))
	copy(out, evs)
	return out, nil
}

// ReconstructChain walks replacement links backward from id to the original
// order of an update chain.
func (s *InMemoryEventStore) ReconstructChain(id uint64) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []uint64
	curr := id
	for curr != 0 {
		chain = append(chain, curr)
		curr = s.replace[curr]
	}
	return chain
}
