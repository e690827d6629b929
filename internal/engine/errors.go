package engine

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrMissingToken      = fmt.Errorf("%w: idempotency key required", ErrValidation)
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCartEmpty         = errors.New("cart empty")
)

// StockError names the product that could not cover the requested quantity.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

type FundsError struct {
	UserEmail string
	Required  int64
	Available int64
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("insufficient funds for %s: required %d, available %d", e.UserEmail, e.Required, e.Available)
}

func (e *FundsError) Unwrap() error { return ErrInsufficientFunds }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func productNotFound(id string) error {
	return fmt.Errorf("product %s: %w", id, ErrNotFound)
}

// Kind classifies an engine error for transports and metrics.
type Kind string

const (
	KindNone              Kind = ""
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindCartEmpty         Kind = "cart_empty"
	KindInternal          Kind = "internal"
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrCartEmpty):
		return KindCartEmpty
	default:
		return KindInternal
	}
}
