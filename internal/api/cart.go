package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vitrine/storefront/internal/domain/cart"
)

// CartClient covers the /cart surface. Every call carries the caller's
// identity: a sessionId query parameter for guests, or nothing when
// authenticated (the backend infers the user from the bearer token).
type CartClient struct {
	c *Client
}

// NewCartClient creates the cart area client.
func NewCartClient(c *Client) *CartClient {
	return &CartClient{c: c}
}

// sessionQuery builds the identity query. Empty sessionID means
// authenticated: no parameter at all.
func sessionQuery(sessionID string) url.Values {
	if sessionID == "" {
		return nil
	}
	return url.Values{"sessionId": []string{sessionID}}
}

func itemQuery(sessionID string, key cart.ItemKey) url.Values {
	q := url.Values{"productId": []string{key.ProductID}}
	if key.VariantID != "" {
		q.Set("variantId", key.VariantID)
	}
	if sessionID != "" {
		q.Set("sessionId", sessionID)
	}
	return q
}

// Fetch returns the caller's cart. A caller with no cart yet gets nil.
func (cc *CartClient) Fetch(ctx context.Context, sessionID string) (*cart.Cart, error) {
	var out cart.Cart
	err := cc.c.get(ctx, "/cart", sessionQuery(sessionID), &out)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.ID == "" && len(out.Items) == 0 {
		return nil, nil
	}
	return &out, nil
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Add puts quantity of the given product (and optional variant) into the
// cart and returns the server's updated cart.
func (cc *CartClient) Add(ctx context.Context, sessionID string, key cart.ItemKey, quantity int) (*cart.Cart, error) {
	in := addItemRequest{ProductID: key.ProductID, VariantID: key.VariantID, Quantity: quantity}
	var out cart.Cart
	if err := cc.c.post(ctx, "/cart/items", sessionQuery(sessionID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type updateItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantity sets the quantity of the line addressed by key.
func (cc *CartClient) UpdateQuantity(ctx context.Context, sessionID string, key cart.ItemKey, quantity int) (*cart.Cart, error) {
	in := updateItemRequest{ProductID: key.ProductID, VariantID: key.VariantID, Quantity: quantity}
	var out cart.Cart
	if err := cc.c.put(ctx, "/cart/items", sessionQuery(sessionID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Remove deletes the line addressed by key.
func (cc *CartClient) Remove(ctx context.Context, sessionID string, key cart.ItemKey) (*cart.Cart, error) {
	var out cart.Cart
	if err := cc.c.delete(ctx, "/cart/items", itemQuery(sessionID, key), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clear destroys the cart.
func (cc *CartClient) Clear(ctx context.Context, sessionID string) error {
	return cc.c.delete(ctx, "/cart", sessionQuery(sessionID), nil)
}

type mergeRequest struct {
	SessionID string `json:"sessionId"`
}

// Merge folds the guest cart identified by sessionID into the authenticated
// user's cart and returns the merged result. The call itself is
// authenticated; the session id travels in the body.
func (cc *CartClient) Merge(ctx context.Context, sessionID string) (*cart.Cart, error) {
	var out cart.Cart
	if err := cc.c.post(ctx, "/cart/merge", nil, mergeRequest{SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recalculate asks the backend to reprice the cart against current product
// data (price changes, stock-driven removals) and returns the result.
func (cc *CartClient) Recalculate(ctx context.Context, sessionID string) (*cart.Cart, error) {
	var out cart.Cart
	if err := cc.c.post(ctx, "/cart/recalculate", sessionQuery(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
