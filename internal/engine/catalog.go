package engine

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"go.opentelemetry.io/otel/attribute"
)

type ProductInput struct {
	Name       string
	PriceCents int64
	Quantity   int
	Category   string
}

type ProductFilter struct {
	Category      string
	AvailableOnly bool
}

func (e *Engine) RegisterProduct(ctx context.Context, in ProductInput) (orders.Product, error) {
	_, span := e.tel.start(ctx, "register_product", attribute.String("product.name", in.Name))
	p, err := e.registerProduct(in)
	end(span, err)
	return p, err
}

func (e *Engine) registerProduct(in ProductInput) (orders.Product, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return orders.Product{}, validationf("name required")
	case in.PriceCents < 0:
		return orders.Product{}, validationf("price_cents must be >= 0")
	case in.Quantity < 0:
		return orders.Product{}, validationf("quantity must be >= 0")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = orders.DefaultCategory
	}
	p := orders.Product{
		ID:         e.NewID(),
		Name:       name,
		PriceCents: in.PriceCents,
		Quantity:   in.Quantity,
		Category:   category,
		CreatedAt:  e.Now(),
	}
	// A fresh id has no lock holders yet, so the insert needs no lock.
	e.store.PutProduct(p)
	return p, nil
}

// ListProducts is a lock-free snapshot in registration order.
func (e *Engine) ListProducts(_ context.Context, f ProductFilter) []orders.Product {
	out := []orders.Product{}
	for _, p := range e.store.Products() {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.AvailableOnly && !p.Available() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SearchProducts matches term case-insensitively against product names. No
// match yields an empty slice.
func (e *Engine) SearchProducts(_ context.Context, term string) []orders.Product {
	needle := strings.ToLower(term)
	out := []orders.Product{}
	for _, p := range e.store.Products() {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) GetProduct(_ context.Context, id string) (orders.Product, error) {
	p, ok := e.store.Product(id)
	if !ok {
		return orders.Product{}, productNotFound(id)
	}
	return p, nil
}
