package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

// MatchingEngine consumes intents one at a time and drives price-time
// matching against the book it exclusively owns. Process is synchronous and
// must never run concurrently with itself; Loop provides the single-consumer
// discipline for concurrent producers.
type MatchingEngine struct {
	book      *orderbook.OrderBook
	log       *zap.Logger
	callbacks []func(ExecutionEvent)
}

// NewMatchingEngine wires the engine to an explicitly constructed book.
// There is no process-wide book; whoever builds the engine decides its
// lifetime. log may be nil.
func NewMatchingEngine(book *orderbook.OrderBook, log *zap.Logger) *MatchingEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &MatchingEngine{book: book, log: log}
}

// RegisterEventCallback subscribes fn to every produced event. Callbacks run
// inside Process, on the engine goroutine; keep them fast and non-blocking.
func (e *MatchingEngine) RegisterEventCallback(fn func(ExecutionEvent)) {
	e.callbacks = append(e.callbacks, fn)
}

// Book exposes the underlying book for read-only snapshots (depth views).
// Mutation stays the engine's exclusive right.
func (e *MatchingEngine) Book() *orderbook.OrderBook {
	return e.book
}

// Process handles one intent end-to-end and returns exactly one event.
// Failures surface as Rejected events and leave the book unchanged; nothing
// here panics or aborts the engine.
func (e *MatchingEngine) Process(intent Intent) ExecutionEvent {
	var ev ExecutionEvent
	switch intent.Kind {
	case IntentBuy, IntentSell:
		ev = e.processNew(intent.Order, intent.TakerSide())
	case IntentCancel:
		ev = e.processCancel(intent.PrevID, intent.Side)
	case IntentUpdate:
		ev = e.processUpdate(intent.PrevID, intent.Side, intent.Order)
	default:
		ev = rejected(intent.Order, intent.Side, ReasonInvalidQuantity)
	}

	for _, cb := range e.callbacks {
		cb(ev)
	}
	return ev
}

func (e *MatchingEngine) processNew(rec *orderbook.OrderRecord, side orderbook.Side) ExecutionEvent {
	if rec == nil || !rec.Remaining().IsPositive() {
		return rejected(rec, side, ReasonInvalidQuantity)
	}
	if e.book.Contains(rec.ID) {
		return rejected(rec, side, ReasonDuplicateID)
	}

	fills := e.matchLoop(rec, side)

	switch {
	case rec.Done():
		ev := ExecutionEvent{Type: EventFilled, Side: side, Order: rec.Snapshot(), Fills: fills, Timestamp: time.Now()}
		e.log.Debug("order filled", zap.Uint64("id", rec.ID), zap.Int("fills", len(fills)))
		return ev

	case rec.Kind == orderbook.MARKET:
		// A market order never rests; the unfilled remainder is discarded.
		if len(fills) == 0 {
			return rejected(rec, side, ReasonNoLiquidity)
		}
		return ExecutionEvent{Type: EventPartiallyFilled, Side: side, Order: rec.Snapshot(), Fills: fills, Timestamp: time.Now()}

	default:
		// Limit remainder rests at its price level.
		if err := e.book.Insert(rec, side); err != nil {
			// Contains was checked above; Insert cannot fail here, but a
			// rejection keeps the no-partial-mutation promise if it ever does.
			e.log.Error("rest remainder", zap.Uint64("id", rec.ID), zap.Error(err))
			return rejected(rec, side, ReasonInvalidQuantity)
		}
		typ := EventAccepted
		if len(fills) > 0 {
			typ = EventPartiallyFilled
		}
		return ExecutionEvent{Type: typ, Side: side, Order: rec.Snapshot(), Fills: fills, Timestamp: time.Now()}
	}
}

// matchLoop walks eligible counter-orders in strict price-time order until
// the taker is filled or the crossing test fails. Fully filled counters come
// off the book; partial counters stay resting with their fill recorded.
func (e *MatchingEngine) matchLoop(rec *orderbook.OrderRecord, side orderbook.Side) []Fill {
	var fills []Fill
	for !rec.Done() {
		counter, ok := e.book.FirstCrossing(side, rec.Kind, rec.Price)
		if !ok {
			break
		}

		qty := decimal.Min(rec.Remaining(), counter.Remaining())
		rec.Filled = rec.Filled.Add(qty)
		counter.Filled = counter.Filled.Add(qty)
		fills = append(fills, Fill{CounterID: counter.ID, Price: counter.Price, Quantity: qty})

		e.log.Debug("trade",
			zap.Uint64("taker", rec.ID),
			zap.Uint64("maker", counter.ID),
			zap.String("price", counter.Price.String()),
			zap.String("qty", qty.String()),
		)

		if counter.Done() {
			e.book.Remove(counter.ID, side.Opposite())
		}
	}
	return fills
}

func (e *MatchingEngine) processCancel(prevID uint64, side orderbook.Side) ExecutionEvent {
	rec, ok := e.book.Remove(prevID, side)
	if !ok {
		return rejected(nil, side, ReasonNotFound)
	}
	e.log.Debug("order cancelled", zap.Uint64("id", prevID))
	return ExecutionEvent{Type: EventCancelled, Side: side, Order: rec.Snapshot(), Timestamp: time.Now()}
}

// processUpdate replaces a resting order via cancel-then-insert. The
// replacement carries a fresh id and joins the back of its price level's
// queue, so an update always resets time priority. Validation happens before
// the cancel so a rejected update never half-applies.
func (e *MatchingEngine) processUpdate(prevID uint64, side orderbook.Side, rec *orderbook.OrderRecord) ExecutionEvent {
	if rec == nil || !rec.Remaining().IsPositive() {
		return rejected(rec, side, ReasonInvalidQuantity)
	}
	if rec.Kind != orderbook.LIMIT {
		// A market replacement would rest at the zero price; market orders
		// never rest.
		return rejected(rec, side, ReasonInvalidKind)
	}
	if e.book.Contains(rec.ID) {
		return rejected(rec, side, ReasonDuplicateID)
	}

	old, ok := e.book.Remove(prevID, side)
	if !ok {
		return rejected(rec, side, ReasonNotFound)
	}

	rec.PrevID = prevID
	if err := e.book.Insert(rec, side); err != nil {
		// Unreachable after the guards above; restore the original so a
		// failed update never leaves the book half-applied.
		e.book.Insert(old, side)
		e.log.Error("insert replacement", zap.Uint64("id", rec.ID), zap.Error(err))
		return rejected(rec, side, ReasonInvalidQuantity)
	}
	e.log.Debug("order updated", zap.Uint64("old", prevID), zap.Uint64("new", rec.ID))
	return ExecutionEvent{Type: EventUpdated, Side: side, Order: rec.Snapshot(), OldID: prevID, Timestamp: time.Now()}
}
