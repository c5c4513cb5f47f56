package app

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/vitrine/storefront/internal/api"
	"github.com/vitrine/storefront/internal/domain/account"
	"github.com/vitrine/storefront/internal/domain/cart"
	"github.com/vitrine/storefront/internal/domain/catalog"
)

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		e, err := a.prompt("Email")
		if err != nil {
			return err
		}
		*email = e
	}
	if *password == "" {
		p, err := a.prompt("Password")
		if err != nil {
			return err
		}
		*password = p
	}

	user, err := a.accounts.Login(ctx, *email, *password)
	if err != nil {
		if api.IsStatus(err, 401) {
			return errors.New("invalid email or password")
		}
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", user.Email)
	a.reportMergedCart(ctx)
	return nil
}

// reportMergedCart folds the guest cart into the account cart after
// sign-in. Merge failures are not sign-in failures.
func (a *App) reportMergedCart(ctx context.Context) {
	if err := a.cartStore.MergeCart(ctx); err != nil {
		a.lg.Warn("cart merge failed", zap.Error(err))
		return
	}
	if c := a.cartStore.Cart(); !c.IsEmpty() {
		fmt.Fprintf(a.out, "Your cart has %d item(s).\n", c.ItemCount)
	}
}

func (a *App) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	name := fs.String("name", "", "full name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.accounts.Register(ctx, account.RegisterInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created for %s\n", user.Email)
	a.reportMergedCart(ctx)
	return nil
}

func (a *App) cmdLogout(ctx context.Context) error {
	if err := a.accounts.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) cmdLogoutAll(ctx context.Context) error {
	if err := a.accounts.LogoutAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out on all devices.")
	return nil
}

func (a *App) cmdWhoami() error {
	user := a.accounts.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s>", user.Name, user.Email)
	if user.IsAdmin() {
		fmt.Fprint(a.out, " (admin)")
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *App) cmdProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	category := fs.String("category", "", "filter by category id")
	search := fs.String("search", "", "search query")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", 20, "items per page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	products, err := a.catalog.ListProducts(ctx, api.ProductFilter{
		CategoryID: *category,
		Search:     *search,
		Page:       *page,
		PerPage:    *perPage,
	})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products found.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
	}
	return w.Flush()
}

func (a *App) cmdProduct(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: product <id>")
	}
	p, err := a.catalog.GetProduct(ctx, args[0])
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return errors.Errorf("product %s not found", args[0])
		}
		return err
	}
	fmt.Fprintf(a.out, "%s\n%s\nPrice: %s\nIn stock: %d\n", p.Name, p.Description, p.Price.StringFixed(2), p.Stock)
	for _, v := range p.Variants {
		fmt.Fprintf(a.out, "  variant %s: %s (%s, stock %d)\n", v.ID, v.Name, v.Price.StringFixed(2), v.Stock)
	}
	if u := p.Image.URL(); u != "" {
		fmt.Fprintf(a.out, "Image: %s\n", u)
	}
	return nil
}

func (a *App) cmdCategories(ctx context.Context) error {
	categories, err := a.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
	}
	return w.Flush()
}

func (a *App) cmdCart(ctx context.Context, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "show":
		if err := a.cartStore.FetchCart(ctx); err != nil {
			return err
		}
		return a.printCart()
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ContinueOnError)
		product := fs.String("product", "", "product id")
		variant := fs.String("variant", "", "variant id")
		qty := fs.Int("qty", 1, "quantity")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *product == "" {
			return errors.New("cart add: -product is required")
		}
		if err := a.cartStore.AddToCart(ctx, *product, *variant, *qty); err != nil {
			return err
		}
		return a.printCart()
	case "set":
		fs := flag.NewFlagSet("cart set", flag.ContinueOnError)
		product := fs.String("product", "", "product id")
		variant := fs.String("variant", "", "variant id")
		qty := fs.Int("qty", 0, "quantity, 0 removes the item")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *product == "" {
			return errors.New("cart set: -product is required")
		}
		if err := a.cartStore.UpdateQuantity(ctx, cart.ItemKey{ProductID: *product, VariantID: *variant}, *qty); err != nil {
			return err
		}
		return a.printCart()
	case "rm":
		fs := flag.NewFlagSet("cart rm", flag.ContinueOnError)
		product := fs.String("product", "", "product id")
		variant := fs.String("variant", "", "variant id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *product == "" {
			return errors.New("cart rm: -product is required")
		}
		if err := a.cartStore.RemoveItem(ctx, cart.ItemKey{ProductID: *product, VariantID: *variant}); err != nil {
			return err
		}
		return a.printCart()
	case "clear":
		if err := a.cartStore.ClearCart(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Cart cleared.")
		return nil
	case "recalc":
		if err := a.cartStore.RecalculateCart(ctx); err != nil {
			return err
		}
		return a.printCart()
	default:
		return errors.Errorf("unknown cart subcommand %q", sub)
	}
}

func (a *App) printCart() error {
	c := a.cartStore.Cart()
	if c.IsEmpty() {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tVARIANT\tQTY\tPRICE\tTOTAL")
	for _, it := range c.Items {
		name := it.Name
		if name == "" {
			name = it.ProductID
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			name, it.VariantID, it.Quantity,
			it.UnitPrice.StringFixed(2), it.LineTotal().StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Subtotal: %s (%d item(s))\n", c.Subtotal.StringFixed(2), c.ItemCount)
	return nil
}

func (a *App) cmdOrders(ctx context.Context) error {
	orders, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTOTAL\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.Status, o.Total.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (a *App) cmdOrder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: order <id>")
	}
	o, err := a.orders.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s\nStatus: %s\nPayment: %s\n", o.ID, o.Status, o.PaymentMethod)
	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	for _, it := range o.Items {
		fmt.Fprintf(w, "  %s\tx%d\t%s\n", it.Name, it.Quantity, it.UnitPrice.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total: %s\nShip to: %s, %s, %s %s, %s\n",
		o.Total.StringFixed(2),
		o.ShippingAddress.FullName, o.ShippingAddress.Line1,
		o.ShippingAddress.City, o.ShippingAddress.PostalCode, o.ShippingAddress.Country)
	return nil
}
