package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vitrine/storefront/internal/domain/catalog"
)

// CatalogClient covers the public product and category surface. All of it is
// anonymous-safe; a bearer token is attached when present but never required.
type CatalogClient struct {
	c *Client
}

// NewCatalogClient creates the catalog area client.
func NewCatalogClient(c *Client) *CatalogClient {
	return &CatalogClient{c: c}
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID string
	Search     string
	Page       int
	PerPage    int
}

func (f ProductFilter) query() url.Values {
	q := url.Values{}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(f.PerPage))
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

// ListProducts returns the products matching filter.
func (cc *CatalogClient) ListProducts(ctx context.Context, filter ProductFilter) ([]catalog.Product, error) {
	var out []catalog.Product
	if err := cc.c.get(ctx, "/products", filter.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct returns one product, or catalog.ErrNotFound.
func (cc *CatalogClient) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var out catalog.Product
	err := cc.c.get(ctx, "/products/"+url.PathEscape(id), nil, &out)
	if IsStatus(err, http.StatusNotFound) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories returns all categories.
func (cc *CatalogClient) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	if err := cc.c.get(ctx, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCategory returns one category.
func (cc *CatalogClient) GetCategory(ctx context.Context, id string) (*catalog.Category, error) {
	var out catalog.Category
	if err := cc.c.get(ctx, "/categories/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
