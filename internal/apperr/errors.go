package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller mistakes. These are terminal: retrying the same
// call will fail the same way.
var (
	ErrUnknownVariant    = errors.New("unknown variant")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrMissingReason     = errors.New("a reason is required")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrOrderNotOpen      = errors.New("sales order is not open")
	ErrOrderNotConfirmed = errors.New("sales order is not confirmed")
	ErrNotFound          = errors.New("not found")
)

// InsufficientStockError is a business outcome, not a fault. Callers may
// retry after stock arrives.
type InsufficientStockError struct {
	VariantID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: available %d, requested %d",
		e.VariantID, e.Available, e.Requested)
}

func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// StoreUnavailableError marks transient persistence failures. The core does
// not retry; retry policy belongs to the caller.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func StoreUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}
