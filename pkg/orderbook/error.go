package orderbook

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrDuplicateID   = errors.New("duplicate order id")
	ErrFullyFilled   = errors.New("order has no remaining quantity")
)
