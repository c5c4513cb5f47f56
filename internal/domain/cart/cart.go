// Package cart holds the canonical cart model and the synchronization store
// that keeps the local cart mirroring the backend's authoritative state.
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemKey addresses one line item by its stable composite identity. Line
// items are never addressed by array position: the backend is free to
// reorder items (it does after a merge), so positional indexes can go stale
// between a read and a write.
type ItemKey struct {
	ProductID string
	VariantID string
}

// Item is one line in a cart: a product (optionally a specific variant),
// a quantity, and the unit price captured when the item was added.
type Item struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Key returns the item's stable addressing key.
func (i Item) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, VariantID: i.VariantID}
}

// LineTotal is quantity times the captured unit price.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the server-authoritative cart snapshot. Exactly one of UserID and
// SessionID identifies the owner: a cart belongs to an authenticated user or
// to a guest session, never both.
type Cart struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Items     []Item          `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
	ExpiresAt time.Time       `json:"expiresAt,omitzero"`
}

// IsEmpty reports whether the cart holds no items. A nil cart is empty:
// the backend returns no cart until the first item is added.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Find returns the item addressed by key and whether it exists.
func (c *Cart) Find(key ItemKey) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	for _, it := range c.Items {
		if it.Key() == key {
			return it, true
		}
	}
	return Item{}, false
}
