package eventstore

import (
	"context"

	"github.com/PvPrs/matching-engine/pkg/engine"
)

// EventStore records every execution event the engine produces, keyed by the
// incoming order's id. The engine itself retains nothing; stores are wired
// as event callbacks at bootstrap.
type EventStore interface {
	Append(ctx context.Context, ev engine.ExecutionEvent) error
	History(ctx context.Context, orderID uint64) ([]engine.ExecutionEvent, error)
}
