package payments

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOrder: the capture references an order this system never
	// created. Never accepted silently.
	ErrUnknownOrder = errors.New("capture references unknown order")

	// ErrOrderNotPayable: the order is not in a state the requested
	// operation may act on.
	ErrOrderNotPayable = errors.New("order not payable")
)

// CreationError: the provider rejected or dropped the order-creation
// call. The local order stays pending, so the operation is retryable.
type CreationError struct {
	OrderID uint64
	Err     error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("provider order creation failed for order %d: %v", e.OrderID, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// Verification failure reasons, named after the exact check that broke.
const (
	ReasonStatusMismatch    = "status mismatch"
	ReasonCurrencyMismatch  = "currency mismatch"
	ReasonAmountMismatch    = "amount mismatch"
	ReasonReferenceMismatch = "reference mismatch"
)

// VerificationError: the captured payment did not match the local
// order. The order is marked failed; funds are never assumed captured
// locally, even if the provider shows success.
type VerificationError struct {
	OrderID uint64
	Reason  string
	Detail  string
}

func (e *VerificationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("payment verification failed for order %d: %s (%s)", e.OrderID, e.Reason, e.Detail)
	}
	return fmt.Sprintf("payment verification failed for order %d: %s", e.OrderID, e.Reason)
}
