// Package checkout drives the two-step checkout flow: resolve a delivery
// address, pick a payment method, place the order. The flow is linear and
// forward-only; order creation itself is the backend's job.
package checkout

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/vitrine/storefront/internal/domain/account"
	"github.com/vitrine/storefront/internal/domain/cart"
	"github.com/vitrine/storefront/internal/domain/order"
)

// Step is a checkout stage.
type Step int

const (
	// StepAddress resolves the delivery address.
	StepAddress Step = iota
	// StepPayment selects the payment method and places the order.
	StepPayment
)

// Flow errors.
var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNoAddress = errors.New("select or add a delivery address")
	ErrNoPayment = errors.New("select a payment method")
)

// AddressBook is the saved-address surface used during checkout.
// Implemented by api.AddressClient.
type AddressBook interface {
	List(ctx context.Context) ([]account.Address, error)
	Create(ctx context.Context, in account.AddressInput) (*account.Address, error)
}

// OrderAPI places orders. Implemented by api.OrderClient.
type OrderAPI interface {
	Create(ctx context.Context, in order.CreateInput) (*order.Order, error)
}

// Identity tells the orchestrator who is checking out.
// Implemented by account.Store.
type Identity interface {
	IsAuthenticated() bool
	CartSession() (string, error)
}

// Orchestrator holds the checkout state machine for one client session.
type Orchestrator struct {
	cart      *cart.Store
	addresses AddressBook
	orders    OrderAPI
	identity  Identity

	mu      sync.Mutex
	step    Step
	saved   *account.Address
	form    *order.ShippingAddress
	payment order.PaymentMethod
}

// New creates an Orchestrator over the given collaborators.
func New(cartStore *cart.Store, addresses AddressBook, orders OrderAPI, identity Identity) *Orchestrator {
	return &Orchestrator{
		cart:      cartStore,
		addresses: addresses,
		orders:    orders,
		identity:  identity,
	}
}

// Begin enters checkout. The cart is re-fetched so the entry guard runs
// against the backend's state, not a possibly stale snapshot.
func (o *Orchestrator) Begin(ctx context.Context) error {
	if err := o.cart.FetchCart(ctx); err != nil {
		return err
	}
	if o.cart.Cart().IsEmpty() {
		return ErrEmptyCart
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.step = StepAddress
	o.saved = nil
	o.form = nil
	o.payment = ""
	return nil
}

// Step returns the current stage.
func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// SavedAddresses lists the authenticated user's address book. Guests have
// none.
func (o *Orchestrator) SavedAddresses(ctx context.Context) ([]account.Address, error) {
	if !o.identity.IsAuthenticated() {
		return nil, nil
	}
	return o.addresses.List(ctx)
}

// SelectAddress picks a saved address as the delivery address.
func (o *Orchestrator) SelectAddress(addr account.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.saved = &addr
	o.form = nil
}

// SubmitAddressForm captures a new address. For authenticated users it is
// persisted to the address book; for guests it lives only in the flow.
func (o *Orchestrator) SubmitAddressForm(ctx context.Context, in account.AddressInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	if o.identity.IsAuthenticated() {
		saved, err := o.addresses.Create(ctx, in)
		if err != nil {
			return err
		}
		o.mu.Lock()
		defer o.mu.Unlock()
		o.saved = saved
		o.form = nil
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.form = &order.ShippingAddress{
		FullName:   in.FullName,
		Phone:      in.Phone,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
	o.saved = nil
	return nil
}

// Continue advances from the address step once an address is resolved.
func (o *Orchestrator) Continue() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step != StepAddress {
		return nil
	}
	if o.saved == nil && o.form == nil {
		return ErrNoAddress
	}
	o.step = StepPayment
	return nil
}

// Back returns to the address step. Selections survive.
func (o *Orchestrator) Back() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.step = StepAddress
}

// SelectPayment picks the payment method.
func (o *Orchestrator) SelectPayment(m order.PaymentMethod) error {
	if !m.Valid() {
		return ErrNoPayment
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.payment = m
	return nil
}

// PlaceOrder submits the order. Both steps must be complete: a resolved
// address and a selected payment method gate the call, so no order-creation
// request leaves the client without them. On success the cart is cleared
// and the flow resets.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (*order.Order, error) {
	o.mu.Lock()
	shipping, ok := o.shippingAddressLocked()
	payment := o.payment
	o.mu.Unlock()

	if !ok {
		return nil, ErrNoAddress
	}
	if !payment.Valid() {
		return nil, ErrNoPayment
	}

	sessionID, err := o.identity.CartSession()
	if err != nil {
		return nil, err
	}

	placed, err := o.orders.Create(ctx, order.CreateInput{
		ShippingAddress: shipping,
		PaymentMethod:   payment,
		SessionID:       sessionID,
	})
	if err != nil {
		return nil, err
	}

	// The backend destroys the cart at placement; clearing the local store
	// keeps the snapshot in sync. A failure here is not a checkout failure.
	_ = o.cart.ClearCart(ctx)

	o.mu.Lock()
	o.step = StepAddress
	o.saved = nil
	o.form = nil
	o.payment = ""
	o.mu.Unlock()

	return placed, nil
}

// shippingAddressLocked builds the order address from whichever source is
// active. Callers hold o.mu.
func (o *Orchestrator) shippingAddressLocked() (order.ShippingAddress, bool) {
	switch {
	case o.saved != nil:
		return order.ShippingAddress{
			FullName:   o.saved.FullName,
			Phone:      o.saved.Phone,
			Line1:      o.saved.Line1,
			Line2:      o.saved.Line2,
			City:       o.saved.City,
			State:      o.saved.State,
			PostalCode: o.saved.PostalCode,
			Country:    o.saved.Country,
		}, true
	case o.form != nil:
		return *o.form, true
	default:
		return order.ShippingAddress{}, false
	}
}
