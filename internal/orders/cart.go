package orders

// CartItem is one requested product line. Quantity is always > 0 once stored.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart keeps lines in insertion order so checkout produces stable line items.
type Cart struct {
	UserEmail string     `json:"user_email"`
	Items     []CartItem `json:"items"`
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }

func (c Cart) Quantity(productID string) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// ProductIDs returns the distinct product ids in line order.
func (c Cart) ProductIDs() []string {
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.ProductID)
	}
	return out
}

// Add merges qty into an existing line or appends a new one.
func (c *Cart) Add(productID string, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
}

// Remove drops qty units of a line. A nil qty, or one that covers the whole
// line, removes the line. Missing lines are ignored.
func (c *Cart) Remove(productID string, qty *int) {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if qty == nil || *qty >= c.Items[i].Quantity {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
		c.Items[i].Quantity -= *qty
		return
	}
}

func (c Cart) Clone() Cart {
	out := Cart{UserEmail: c.UserEmail}
	if len(c.Items) > 0 {
		out.Items = append([]CartItem(nil), c.Items...)
	}
	return out
}

// CartLine is a priced view of a cart entry. Product is nil and Available is
// false when the product no longer exists.
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
