// internal/domain/cart/entity.go
package cart

import (
	"github.com/shopspring/decimal"
)

// LineItem is one priced entry in a session cart
type LineItem struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Price        decimal.Decimal  `json:"price"`
	Quantity     int              `json:"quantity"`
	Image        string           `json:"img,omitempty"`
	CategoryID   string           `json:"category_id,omitempty"`
	CategoryName string           `json:"category_name,omitempty"`
	Gramm        *decimal.Decimal `json:"gramm,omitempty"` // set for weight-priced items only
}

// Weighted reports whether the item was priced by weight.
// Weighted items are never merged.
func (i LineItem) Weighted() bool {
	return i.Gramm != nil
}

// Subtotal returns price times quantity
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums price*quantity over the given items
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Clone returns a deep copy of items so later cart mutations can't leak into it
func Clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Gramm != nil {
			g := *item.Gramm
			out[i].Gramm = &g
		}
	}
	return out
}
