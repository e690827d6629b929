package storeclient

import (
	"errors"
	"fmt"
	"time"
)

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

type Wallet struct {
	UserEmail    string `json:"user_email"`
	BalanceCents int64  `json:"balance_cents"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	UserEmail string     `json:"user_email"`
	Items     []CartItem `json:"items"`
}

type CartLine struct {
	ProductID      string   `json:"product_id"`
	Product        *Product `json:"product,omitempty"`
	Quantity       int      `json:"quantity"`
	LineTotalCents int64    `json:"line_total_cents"`
	Available      bool     `json:"available"`
}

type CartView struct {
	UserEmail  string     `json:"user_email"`
	Items      []CartLine `json:"items"`
	TotalCents int64      `json:"total_cents"`
}

type LineItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Order struct {
	ID         string     `json:"id"`
	UserEmail  string     `json:"user_email"`
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Receipt is a placed order plus whether the server answered from its
// idempotency cache.
type Receipt struct {
	Order    Order
	Replayed bool
	// Key is the idempotency key that was sent.
	Key string
}

// Error kinds reported by the server.
const (
	KindValidation        = "validation"
	KindNotFound          = "not_found"
	KindInsufficientStock = "insufficient_stock"
	KindInsufficientFunds = "insufficient_funds"
	KindCartEmpty         = "cart_empty"
	KindInternal          = "internal"
)

// APIError is a non-2xx answer from the store.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"error"`
	Kind      string `json:"kind"`
	ProductID string `json:"product_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("store: %d %s (product %s): %s", e.Status, e.Kind, e.ProductID, e.Message)
	}
	return fmt.Sprintf("store: %d %s: %s", e.Status, e.Kind, e.Message)
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind string) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == kind
}
