package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine/storefront/internal/domain/account"
	"github.com/vitrine/storefront/internal/domain/cart"
	"github.com/vitrine/storefront/internal/domain/order"
)

// fakeCartAPI is a minimal server-side cart: fixed items until cleared.
type fakeCartAPI struct {
	mu      sync.Mutex
	items   []cart.Item
	cleared bool
}

func (f *fakeCartAPI) snapshot() *cart.Cart {
	if len(f.items) == 0 {
		return nil
	}
	items := make([]cart.Item, len(f.items))
	copy(items, f.items)
	subtotal := decimal.Zero
	count := 0
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
		count += it.Quantity
	}
	return &cart.Cart{ID: "c1", Items: items, Subtotal: subtotal, ItemCount: count}
}

func (f *fakeCartAPI) Fetch(_ context.Context, _ string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeCartAPI) Add(_ context.Context, _ string, _ cart.ItemKey, _ int) (*cart.Cart, error) {
	return f.snapshot(), nil
}

func (f *fakeCartAPI) UpdateQuantity(_ context.Context, _ string, _ cart.ItemKey, _ int) (*cart.Cart, error) {
	return f.snapshot(), nil
}

func (f *fakeCartAPI) Remove(_ context.Context, _ string, _ cart.ItemKey) (*cart.Cart, error) {
	return f.snapshot(), nil
}

func (f *fakeCartAPI) Clear(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.cleared = true
	return nil
}

func (f *fakeCartAPI) Merge(_ context.Context, _ string) (*cart.Cart, error) {
	return f.snapshot(), nil
}

func (f *fakeCartAPI) Recalculate(_ context.Context, _ string) (*cart.Cart, error) {
	return f.snapshot(), nil
}

type fakeIdentity struct {
	authenticated bool
	guestID       string
}

func (f *fakeIdentity) IsAuthenticated() bool { return f.authenticated }

func (f *fakeIdentity) CartSession() (string, error) {
	if f.authenticated {
		return "", nil
	}
	return f.guestID, nil
}

func (f *fakeIdentity) GuestSession() (string, bool) { return f.guestID, f.guestID != "" }

func (f *fakeIdentity) ClearGuestSession() error {
	f.guestID = ""
	return nil
}

type fakeAddressBook struct {
	saved   []account.Address
	created []account.AddressInput
}

func (f *fakeAddressBook) List(_ context.Context) ([]account.Address, error) {
	return f.saved, nil
}

func (f *fakeAddressBook) Create(_ context.Context, in account.AddressInput) (*account.Address, error) {
	f.created = append(f.created, in)
	addr := account.Address{
		ID:         "addr-new",
		FullName:   in.FullName,
		Phone:      in.Phone,
		Line1:      in.Line1,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
	f.saved = append(f.saved, addr)
	return &addr, nil
}

// fakeOrders snapshots the fake cart at placement, the way the backend does.
type fakeOrders struct {
	backend *fakeCartAPI
	placed  []order.CreateInput
	err     error
}

func (f *fakeOrders) Create(_ context.Context, in order.CreateInput) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.placed = append(f.placed, in)

	snap := f.backend.snapshot()
	var items []order.Item
	subtotal := decimal.Zero
	if snap != nil {
		for _, it := range snap.Items {
			items = append(items, order.Item{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
			subtotal = subtotal.Add(it.LineTotal())
		}
	}
	return &order.Order{
		ID:              "o1",
		Items:           items,
		Subtotal:        subtotal,
		Total:           subtotal,
		Status:          order.StatusPending,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: in.ShippingAddress,
	}, nil
}

func guestForm() account.AddressInput {
	return account.AddressInput{
		FullName:   "Grace Hopper",
		Phone:      "+1 555 0100",
		Line1:      "1 Compiler Court",
		City:       "Arlington",
		PostalCode: "22201",
		Country:    "US",
	}
}

func newFlow(items []cart.Item, identity *fakeIdentity) (*Orchestrator, *fakeCartAPI, *fakeAddressBook, *fakeOrders) {
	backend := &fakeCartAPI{items: items}
	cartStore := cart.NewStore(backend, identity)
	addresses := &fakeAddressBook{}
	orders := &fakeOrders{backend: backend}
	return New(cartStore, addresses, orders, identity), backend, addresses, orders
}

func oneItemCart() []cart.Item {
	return []cart.Item{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)}}
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	flow, _, _, _ := newFlow(nil, &fakeIdentity{guestID: "g1"})
	assert.ErrorIs(t, flow.Begin(context.Background()), ErrEmptyCart)
}

func TestContinueRequiresAddress(t *testing.T) {
	flow, _, _, _ := newFlow(oneItemCart(), &fakeIdentity{guestID: "g1"})
	require.NoError(t, flow.Begin(context.Background()))

	assert.ErrorIs(t, flow.Continue(), ErrNoAddress)
	assert.Equal(t, StepAddress, flow.Step())

	require.NoError(t, flow.SubmitAddressForm(context.Background(), guestForm()))
	require.NoError(t, flow.Continue())
	assert.Equal(t, StepPayment, flow.Step())
}

// Selecting a payment method with no address resolved must fail the submit
// path with the address error and place no order.
func TestPlaceOrderWithoutAddress(t *testing.T) {
	flow, _, _, orders := newFlow(oneItemCart(), &fakeIdentity{guestID: "g1"})
	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.SelectPayment(order.PaymentCard))

	_, err := flow.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrNoAddress)
	assert.Empty(t, orders.placed, "no order-creation call may leave the client")
}

func TestPlaceOrderWithoutPayment(t *testing.T) {
	flow, _, _, orders := newFlow(oneItemCart(), &fakeIdentity{guestID: "g1"})
	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.SubmitAddressForm(context.Background(), guestForm()))
	require.NoError(t, flow.Continue())

	_, err := flow.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrNoPayment)
	assert.Empty(t, orders.placed)
}

// Full guest checkout: the order total reflects the cart, the guest session
// id rides along, and the cart ends up empty.
func TestGuestCheckoutRoundTrip(t *testing.T) {
	identity := &fakeIdentity{guestID: "g1"}
	flow, backend, addresses, orders := newFlow(oneItemCart(), identity)
	ctx := context.Background()

	require.NoError(t, flow.Begin(ctx))
	require.NoError(t, flow.SubmitAddressForm(ctx, guestForm()))
	assert.Empty(t, addresses.created, "guest addresses are never persisted")
	require.NoError(t, flow.Continue())
	require.NoError(t, flow.SelectPayment(order.PaymentCashOnDelivery))

	placed, err := flow.PlaceOrder(ctx)
	require.NoError(t, err)

	assert.True(t, placed.Subtotal.Equal(decimal.NewFromInt(20)),
		"2 x 10 must total 20, got %s", placed.Subtotal)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, "p1", placed.Items[0].ProductID)
	assert.Equal(t, 2, placed.Items[0].Quantity)

	require.Len(t, orders.placed, 1)
	assert.Equal(t, "g1", orders.placed[0].SessionID)
	assert.Equal(t, "Grace Hopper", orders.placed[0].ShippingAddress.FullName)

	assert.True(t, backend.cleared)
	assert.Nil(t, flow.cart.Cart(), "local cart is empty after placement")
	assert.Equal(t, StepAddress, flow.Step(), "flow resets after placement")
}

// Authenticated checkout: new address is persisted to the address book and
// no session id is attached.
func TestAuthenticatedCheckout(t *testing.T) {
	identity := &fakeIdentity{authenticated: true}
	flow, _, addresses, orders := newFlow(oneItemCart(), identity)
	ctx := context.Background()

	require.NoError(t, flow.Begin(ctx))
	require.NoError(t, flow.SubmitAddressForm(ctx, guestForm()))
	require.Len(t, addresses.created, 1, "authenticated addresses persist to the backend")
	require.NoError(t, flow.Continue())
	require.NoError(t, flow.SelectPayment(order.PaymentCard))

	_, err := flow.PlaceOrder(ctx)
	require.NoError(t, err)
	require.Len(t, orders.placed, 1)
	assert.Empty(t, orders.placed[0].SessionID)
}

func TestSelectSavedAddress(t *testing.T) {
	identity := &fakeIdentity{authenticated: true}
	flow, _, addresses, orders := newFlow(oneItemCart(), identity)
	addresses.saved = []account.Address{{
		ID: "addr-1", FullName: "Ada Lovelace", Phone: "1", Line1: "12 Analytical Way",
		City: "London", PostalCode: "EC1A 1BB", Country: "GB",
	}}
	ctx := context.Background()

	require.NoError(t, flow.Begin(ctx))
	saved, err := flow.SavedAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	flow.SelectAddress(saved[0])
	require.NoError(t, flow.Continue())
	require.NoError(t, flow.SelectPayment(order.PaymentCashOnDelivery))

	placed, err := flow.PlaceOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", placed.ShippingAddress.FullName)
	require.Len(t, orders.placed, 1)
	assert.Equal(t, "London", orders.placed[0].ShippingAddress.City)
}

func TestBackReturnsToAddress(t *testing.T) {
	flow, _, _, _ := newFlow(oneItemCart(), &fakeIdentity{guestID: "g1"})
	ctx := context.Background()

	require.NoError(t, flow.Begin(ctx))
	require.NoError(t, flow.SubmitAddressForm(ctx, guestForm()))
	require.NoError(t, flow.Continue())
	require.Equal(t, StepPayment, flow.Step())

	flow.Back()
	assert.Equal(t, StepAddress, flow.Step())

	// Selections survive going back.
	require.NoError(t, flow.Continue())
	assert.Equal(t, StepPayment, flow.Step())
}

func TestSubmitAddressFormValidates(t *testing.T) {
	flow, _, _, _ := newFlow(oneItemCart(), &fakeIdentity{guestID: "g1"})
	require.NoError(t, flow.Begin(context.Background()))

	bad := guestForm()
	bad.Line1 = ""
	err := flow.SubmitAddressForm(context.Background(), bad)
	var vErr *account.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"line1"}, vErr.Fields)
}

func TestSelectPaymentRejectsUnknownMethod(t *testing.T) {
	flow, _, _, _ := newFlow(oneItemCart(), &fakeIdentity{guestID: "g1"})
	assert.ErrorIs(t, flow.SelectPayment("wire"), ErrNoPayment)
}
