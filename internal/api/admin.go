package api

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/vitrine/storefront/internal/domain/catalog"
)

// AdminClient covers the /admin surface for catalog and inventory
// management. Every call requires an authenticated admin; the backend
// enforces the role.
type AdminClient struct {
	c *Client
}

// NewAdminClient creates the admin area client.
func NewAdminClient(c *Client) *AdminClient {
	return &AdminClient{c: c}
}

// ProductInput is the admin create/update payload for a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"categoryId,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"isActive"`
}

// CategoryInput is the admin create/update payload for a category.
type CategoryInput struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parentId,omitempty"`
}

// StockLevel is one row of the inventory report.
type StockLevel struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}

// CreateProduct adds a product to the catalog.
func (ac *AdminClient) CreateProduct(ctx context.Context, in ProductInput) (*catalog.Product, error) {
	var out catalog.Product
	if err := ac.c.post(ctx, "/admin/products", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct modifies a product.
func (ac *AdminClient) UpdateProduct(ctx context.Context, id string, in ProductInput) (*catalog.Product, error) {
	var out catalog.Product
	if err := ac.c.patch(ctx, "/admin/products/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct removes a product from the catalog.
func (ac *AdminClient) DeleteProduct(ctx context.Context, id string) error {
	return ac.c.delete(ctx, "/admin/products/"+url.PathEscape(id), nil, nil)
}

// CreateCategory adds a category.
func (ac *AdminClient) CreateCategory(ctx context.Context, in CategoryInput) (*catalog.Category, error) {
	var out catalog.Category
	if err := ac.c.post(ctx, "/admin/categories", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory modifies a category.
func (ac *AdminClient) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*catalog.Category, error) {
	var out catalog.Category
	if err := ac.c.patch(ctx, "/admin/categories/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory removes a category.
func (ac *AdminClient) DeleteCategory(ctx context.Context, id string) error {
	return ac.c.delete(ctx, "/admin/categories/"+url.PathEscape(id), nil, nil)
}

// ListInventory returns current stock levels.
func (ac *AdminClient) ListInventory(ctx context.Context) ([]StockLevel, error) {
	var out []StockLevel
	if err := ac.c.get(ctx, "/admin/inventory", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type adjustStockRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Delta     int    `json:"delta"`
}

// AdjustStock applies a relative stock change and returns the new level.
func (ac *AdminClient) AdjustStock(ctx context.Context, productID, variantID string, delta int) (*StockLevel, error) {
	in := adjustStockRequest{ProductID: productID, VariantID: variantID, Delta: delta}
	var out StockLevel
	if err := ac.c.post(ctx, "/admin/inventory/adjust", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
