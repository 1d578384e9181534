package orders

import "errors"

var (
	ErrNotFound         = errors.New("order not found")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrCurrencyMismatch = errors.New("currency mismatch in order items")
)
