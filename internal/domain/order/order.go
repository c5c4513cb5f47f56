// Package order holds the order model as returned by the backend. Orders are
// immutable snapshots of a cart plus addresses at placement time; the status
// state machine is owned and enforced entirely by the backend.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is an order lifecycle state. Transitions are backend-owned; the
// client only renders them.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentCard           PaymentMethod = "card"
)

// Valid reports whether m is a method the backend accepts.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCard
}

// ShippingAddress is the address snapshot captured into an order.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Item is one immutable order line.
type Item struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CreateInput is the order placement payload. SessionID identifies the
// guest cart to convert into an order; it stays empty for authenticated
// callers, whose cart the backend finds via the bearer token.
type CreateInput struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	SessionID       string          `json:"sessionId,omitempty"`
}

// Order is a placed order as reported by the backend.
type Order struct {
	ID              string          `json:"id"`
	Items           []Item          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
}
