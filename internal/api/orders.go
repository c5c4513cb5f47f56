package api

import (
	"context"
	"net/url"

	"github.com/vitrine/storefront/internal/domain/order"
)

// OrderClient covers the /orders surface.
type OrderClient struct {
	c *Client
}

// NewOrderClient creates the order area client.
func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{c: c}
}

// Create places an order from the caller's cart. The backend snapshots
// items, prices, and the address atomically and destroys the cart.
func (oc *OrderClient) Create(ctx context.Context, in order.CreateInput) (*order.Order, error) {
	var out order.Order
	if err := oc.c.post(ctx, "/orders", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the authenticated user's order history.
func (oc *OrderClient) List(ctx context.Context) ([]order.Order, error) {
	var out []order.Order
	if err := oc.c.get(ctx, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one order.
func (oc *OrderClient) Get(ctx context.Context, id string) (*order.Order, error) {
	var out order.Order
	if err := oc.c.get(ctx, "/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
