package api

import (
	"context"
	"net/url"

	"github.com/vitrine/storefront/internal/domain/account"
)

// AddressClient covers the authenticated /addresses surface.
type AddressClient struct {
	c *Client
}

// NewAddressClient creates the address-book area client.
func NewAddressClient(c *Client) *AddressClient {
	return &AddressClient{c: c}
}

// List returns the user's saved addresses.
func (ac *AddressClient) List(ctx context.Context) ([]account.Address, error) {
	var out []account.Address
	if err := ac.c.get(ctx, "/addresses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create saves a new address.
func (ac *AddressClient) Create(ctx context.Context, in account.AddressInput) (*account.Address, error) {
	var out account.Address
	if err := ac.c.post(ctx, "/addresses", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update modifies a saved address.
func (ac *AddressClient) Update(ctx context.Context, id string, in account.AddressInput) (*account.Address, error) {
	var out account.Address
	if err := ac.c.patch(ctx, "/addresses/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a saved address.
func (ac *AddressClient) Delete(ctx context.Context, id string) error {
	return ac.c.delete(ctx, "/addresses/"+url.PathEscape(id), nil, nil)
}
