// Package catalog holds the canonical product and category model. Backend
// payload variants are normalized here, at the API boundary, so stores and
// presentation code only ever see one shape.
package catalog

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Image       Image           `json:"image"`
	Variants    []Variant       `json:"variants,omitempty"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"isActive"`
}

// Variant is a purchasable variation of a product (size, color, ...).
type Variant struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// Category is a catalog grouping. Categories form a single-level tree via
// ParentID; the backend owns the hierarchy.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parentId,omitempty"`
}

// Image holds responsive image URLs for a product.
//
// The backend serves two payload shapes for images: a bare URL string, or an
// object with per-breakpoint URLs. Decoding accepts both and produces the
// object form, with the bare URL filling every breakpoint.
type Image struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

// imageObject mirrors Image without methods, to avoid recursive decoding.
type imageObject struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

// UnmarshalJSON implements the string-or-object normalization.
func (i *Image) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var url string
		if err := json.Unmarshal(b, &url); err != nil {
			return errors.Wrap(err, "decode image url")
		}
		*i = Image{Thumbnail: url, Mobile: url, Tablet: url, Desktop: url}
		return nil
	}
	var obj imageObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.Wrap(err, "decode image object")
	}
	*i = Image(obj)
	return nil
}

// URL returns the best single URL for contexts that render one image.
func (i Image) URL() string {
	switch {
	case i.Desktop != "":
		return i.Desktop
	case i.Tablet != "":
		return i.Tablet
	case i.Mobile != "":
		return i.Mobile
	default:
		return i.Thumbnail
	}
}
