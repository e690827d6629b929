package orders

import "time"

const DefaultCategory = "general"

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

// Available reports whether at least one unit is in stock.
func (p Product) Available() bool { return p.Quantity > 0 }

type Wallet struct {
	UserEmail    string `json:"user_email"`
	BalanceCents int64  `json:"balance_cents"`
}

type Order struct {
	ID         string     `json:"id"`
	UserEmail  string     `json:"user_email"`
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	Status     Status     `json:"status"` // lihat status.go
	CreatedAt  time.Time  `json:"created_at"`
}

// LineItem snapshots the product name and price at commit time.
type LineItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Clone returns a copy that shares no slice memory with o.
func (o Order) Clone() Order {
	out := o
	if o.Items != nil {
		out.Items = append([]LineItem(nil), o.Items...)
	}
	return out
}

// SumLines recomputes the total from the line items.
func (o Order) SumLines() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.LineTotalCents
	}
	return total
}
