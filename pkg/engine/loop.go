package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrLoopClosed = errors.New("engine loop closed")

// submission is one intent plus the channel its event travels back on.
type submission struct {
	intent Intent
	resp   chan ExecutionEvent
}

// Loop gives the engine its single-writer discipline: concurrent producers
// hand intents into a bounded queue and one consumer goroutine drains it
// sequentially, so matching for one intent always runs end-to-end against a
// consistent book. A full queue blocks producers (backpressure) instead of
// dropping intents.
type Loop struct {
	engine *MatchingEngine
	queue  chan submission
	done   chan struct{}
	log    *zap.Logger
}

// NewLoop builds a loop over the engine with the given queue capacity.
func NewLoop(engine *MatchingEngine, queueSize int, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		engine: engine,
		queue:  make(chan submission, queueSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

// Run consumes submissions until ctx is cancelled. It is the sole caller of
// Process; an in-flight intent always runs to completion, cancellation only
// stops the loop between intents.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	l.log.Info("engine loop started", zap.Int("queue_size", cap(l.queue)))
	for {
		select {
		case <-ctx.Done():
			l.log.Info("engine loop stopped")
			return
		case sub := <-l.queue:
			sub.resp <- l.engine.Process(sub.intent)
		}
	}
}

// Submit hands an intent to the consumer and waits for its event. ctx bounds
// only the enqueue and the wait; it never cancels processing that has
// already started. Callers wanting to undo a resting order submit a Cancel
// intent through this same path.
func (l *Loop) Submit(ctx context.Context, intent Intent) (ExecutionEvent, error) {
	sub := submission{intent: intent, resp: make(chan ExecutionEvent, 1)}

	select {
	case l.queue <- sub:
	case <-ctx.Done():
		return ExecutionEvent{}, ctx.Err()
	case <-l.done:
		return ExecutionEvent{}, ErrLoopClosed
	}

	select {
	case ev := <-sub.resp:
		return ev, nil
	case <-l.done:
		// The consumer may have answered just before stopping.
		select {
		case ev := <-sub.resp:
			return ev, nil
		default:
			return ExecutionEvent{}, ErrLoopClosed
		}
	}
}
