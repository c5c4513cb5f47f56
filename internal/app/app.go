// Package app wires the storefront client together and dispatches CLI
// commands onto it.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vitrine/storefront/internal/api"
	"github.com/vitrine/storefront/internal/domain/account"
	"github.com/vitrine/storefront/internal/domain/cart"
	"github.com/vitrine/storefront/internal/domain/checkout"
	"github.com/vitrine/storefront/internal/state"
	"github.com/vitrine/storefront/pkg/httptransport"
)

// App is one wired client session: state, stores, area clients, and the
// checkout flow, all application-scoped.
type App struct {
	cfg *Config
	lg  *zap.Logger
	out io.Writer
	in  *bufio.Reader

	accounts  *account.Store
	cartStore *cart.Store
	catalog   *api.CatalogClient
	orders    *api.OrderClient
	addresses *api.AddressClient
	admin     *api.AdminClient
	checkout  *checkout.Orchestrator
}

// Run creates all dependencies and executes one CLI command. It is the
// single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry, cfg *Config, args []string) error {
	ctx = zctx.Base(ctx, lg)

	local, err := state.OpenFile(cfg.StatePath)
	if err != nil {
		return errors.Wrap(err, "open local state")
	}

	a := &App{
		cfg: cfg,
		lg:  lg,
		out: os.Stdout,
		in:  bufio.NewReader(os.Stdin),
	}

	// The accounts store and the API client reference each other: the
	// client reads tokens from the store, the store logs in through the
	// client. Construct the store first, bind the auth client after.
	a.accounts = account.NewStore(nil, local)

	middlewares := []httptransport.Middleware{
		httptransport.RequestID(),
		httptransport.Instrument(
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}
	if cfg.LogRequests {
		middlewares = append(middlewares, httptransport.LogRequests())
	}

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIBaseURL,
		HTTPClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: httptransport.Wrap(nil, middlewares...),
		},
		Tokens:        a.accounts,
		RefreshLeeway: cfg.RefreshLeeway,
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "Your session has expired. Run 'storefront login' to continue.")
		},
	})
	if err != nil {
		return err
	}

	a.accounts.SetAuthAPI(api.NewAuthClient(client))
	a.catalog = api.NewCatalogClient(client)
	a.orders = api.NewOrderClient(client)
	a.addresses = api.NewAddressClient(client)
	a.admin = api.NewAdminClient(client)
	a.cartStore = cart.NewStore(api.NewCartClient(client), a.accounts)
	a.checkout = checkout.New(a.cartStore, a.addresses, a.orders, a.accounts)

	return a.dispatch(ctx, args)
}

func (a *App) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, rest)
	case "register":
		return a.cmdRegister(ctx, rest)
	case "logout":
		return a.cmdLogout(ctx)
	case "logout-all":
		return a.cmdLogoutAll(ctx)
	case "whoami":
		return a.cmdWhoami()
	case "products":
		return a.cmdProducts(ctx, rest)
	case "product":
		return a.cmdProduct(ctx, rest)
	case "categories":
		return a.cmdCategories(ctx)
	case "cart":
		return a.cmdCart(ctx, rest)
	case "orders":
		return a.cmdOrders(ctx)
	case "order":
		return a.cmdOrder(ctx, rest)
	case "checkout":
		return a.cmdCheckout(ctx)
	case "admin":
		return a.cmdAdmin(ctx, rest)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return errors.Errorf("unknown command %q", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprint(a.out, `Usage: storefront <command> [flags]

Account:
  login -email <e> -password <p>     Sign in
  register -email <e> -password <p> -name <n>
  logout                             Sign out of this device
  logout-all                         Sign out everywhere
  whoami                             Show the signed-in user

Catalog:
  products [-category <id>] [-search <q>] [-page <n>] [-per-page <n>]
  product <id>
  categories

Cart & orders:
  cart [show]                        Show the cart
  cart add -product <id> [-variant <id>] [-qty <n>]
  cart set -product <id> [-variant <id>] -qty <n>
  cart rm -product <id> [-variant <id>]
  cart clear
  cart recalc                        Reprice against current product data
  checkout                           Two-step checkout (address, payment)
  orders                             Order history
  order <id>                         Order details

Admin (requires an admin account):
  admin product-add|product-set|product-rm ...
  admin category-add|category-set|category-rm ...
  admin inventory
  admin stock -product <id> [-variant <id>] -delta <n>

Configuration comes from STOREFRONT_* environment variables or
storefront.yaml; STOREFRONT_APIBASEURL selects the backend.
`)
}

// prompt prints a label and reads one trimmed line.
func (a *App) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimSpace(line), nil
}
