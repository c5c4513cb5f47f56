package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/vitrine/storefront/internal/domain/account"
	"github.com/vitrine/storefront/internal/domain/checkout"
	"github.com/vitrine/storefront/internal/domain/order"
)

// cmdCheckout walks the two-step flow interactively: resolve an address,
// pick a payment method, place the order.
func (a *App) cmdCheckout(ctx context.Context) error {
	if err := a.checkout.Begin(ctx); err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			fmt.Fprintln(a.out, "Your cart is empty. Add something first.")
			return nil
		}
		return err
	}
	if err := a.printCart(); err != nil {
		return err
	}

	if err := a.resolveAddress(ctx); err != nil {
		return err
	}
	if err := a.checkout.Continue(); err != nil {
		return err
	}

	if err := a.resolvePayment(); err != nil {
		return err
	}

	placed, err := a.checkout.PlaceOrder(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s placed. Total: %s\n", placed.ID, placed.Total.StringFixed(2))
	if a.accounts.IsAuthenticated() {
		fmt.Fprintln(a.out, "Track it with 'storefront order", placed.ID+"'.")
	} else {
		fmt.Fprintln(a.out, "Keep this order id; guest orders are not listed in an account.")
	}
	return nil
}

func (a *App) resolveAddress(ctx context.Context) error {
	saved, err := a.checkout.SavedAddresses(ctx)
	if err != nil {
		return err
	}
	if len(saved) > 0 {
		fmt.Fprintln(a.out, "Saved addresses:")
		for i, addr := range saved {
			fmt.Fprintf(a.out, "  %d) %s, %s, %s %s, %s\n",
				i+1, addr.FullName, addr.Line1, addr.City, addr.PostalCode, addr.Country)
		}
		choice, err := a.prompt("Address number, or 'new'")
		if err != nil {
			return err
		}
		if choice != "new" {
			n, err := strconv.Atoi(choice)
			if err != nil || n < 1 || n > len(saved) {
				return errors.Errorf("no such address: %s", choice)
			}
			a.checkout.SelectAddress(saved[n-1])
			return nil
		}
	}
	return a.promptAddressForm(ctx)
}

func (a *App) promptAddressForm(ctx context.Context) error {
	for {
		in, err := a.readAddressInput()
		if err != nil {
			return err
		}
		err = a.checkout.SubmitAddressForm(ctx, in)
		if err == nil {
			return nil
		}
		var v *account.ValidationError
		if !errors.As(err, &v) {
			return err
		}
		fmt.Fprintf(a.out, "Missing required fields: %s. Try again.\n", strings.Join(v.Fields, ", "))
	}
}

func (a *App) readAddressInput() (account.AddressInput, error) {
	var in account.AddressInput
	fields := []struct {
		label string
		dst   *string
	}{
		{"Full name", &in.FullName},
		{"Phone", &in.Phone},
		{"Address line 1", &in.Line1},
		{"Address line 2 (optional)", &in.Line2},
		{"City", &in.City},
		{"State/region (optional)", &in.State},
		{"Postal code", &in.PostalCode},
		{"Country", &in.Country},
	}
	for _, f := range fields {
		v, err := a.prompt(f.label)
		if err != nil {
			return in, err
		}
		*f.dst = v
	}
	return in, nil
}

func (a *App) resolvePayment() error {
	for {
		choice, err := a.prompt("Payment method (cod or card)")
		if err != nil {
			return err
		}
		if err := a.checkout.SelectPayment(order.PaymentMethod(choice)); err == nil {
			return nil
		}
		fmt.Fprintln(a.out, "Unknown payment method. Enter 'cod' or 'card'.")
	}
}
