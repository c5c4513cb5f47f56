package app

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vitrine/storefront/internal/api"
)

func (a *App) cmdAdmin(ctx context.Context, args []string) error {
	if u := a.accounts.CurrentUser(); u == nil || !u.IsAdmin() {
		return errors.New("admin commands require a signed-in admin account")
	}
	if len(args) == 0 {
		return errors.New("usage: admin <product-add|product-set|product-rm|category-add|category-set|category-rm|inventory|stock> ...")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "product-add":
		in, err := parseProductInput(rest)
		if err != nil {
			return err
		}
		p, err := a.admin.CreateProduct(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created product %s\n", p.ID)
		return nil
	case "product-set":
		if len(rest) < 1 {
			return errors.New("usage: admin product-set <id> [flags]")
		}
		in, err := parseProductInput(rest[1:])
		if err != nil {
			return err
		}
		p, err := a.admin.UpdateProduct(ctx, rest[0], in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated product %s\n", p.ID)
		return nil
	case "product-rm":
		if len(rest) != 1 {
			return errors.New("usage: admin product-rm <id>")
		}
		if err := a.admin.DeleteProduct(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Product removed.")
		return nil
	case "category-add":
		in, err := parseCategoryInput(rest)
		if err != nil {
			return err
		}
		c, err := a.admin.CreateCategory(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created category %s\n", c.ID)
		return nil
	case "category-set":
		if len(rest) < 1 {
			return errors.New("usage: admin category-set <id> [flags]")
		}
		in, err := parseCategoryInput(rest[1:])
		if err != nil {
			return err
		}
		c, err := a.admin.UpdateCategory(ctx, rest[0], in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated category %s\n", c.ID)
		return nil
	case "category-rm":
		if len(rest) != 1 {
			return errors.New("usage: admin category-rm <id>")
		}
		if err := a.admin.DeleteCategory(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Category removed.")
		return nil
	case "inventory":
		levels, err := a.admin.ListInventory(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PRODUCT\tVARIANT\tNAME\tSTOCK")
		for _, l := range levels {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", l.ProductID, l.VariantID, l.Name, l.Stock)
		}
		return w.Flush()
	case "stock":
		fs := flag.NewFlagSet("admin stock", flag.ContinueOnError)
		product := fs.String("product", "", "product id")
		variant := fs.String("variant", "", "variant id")
		delta := fs.Int("delta", 0, "relative stock change")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *product == "" {
			return errors.New("admin stock: -product is required")
		}
		level, err := a.admin.AdjustStock(ctx, *product, *variant, *delta)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s now has stock %d\n", level.Name, level.Stock)
		return nil
	default:
		return errors.Errorf("unknown admin subcommand %q", sub)
	}
}

func parseProductInput(args []string) (api.ProductInput, error) {
	fs := flag.NewFlagSet("admin product", flag.ContinueOnError)
	name := fs.String("name", "", "product name")
	description := fs.String("description", "", "product description")
	price := fs.String("price", "", "unit price, e.g. 19.99")
	category := fs.String("category", "", "category id")
	image := fs.String("image", "", "image url")
	stock := fs.Int("stock", 0, "stock on hand")
	active := fs.Bool("active", true, "list the product in the storefront")
	if err := fs.Parse(args); err != nil {
		return api.ProductInput{}, err
	}
	in := api.ProductInput{
		Name:        *name,
		Description: *description,
		CategoryID:  *category,
		ImageURL:    *image,
		Stock:       *stock,
		IsActive:    *active,
	}
	if *price != "" {
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return api.ProductInput{}, errors.Wrap(err, "parse price")
		}
		in.Price = p
	}
	return in, nil
}

func parseCategoryInput(args []string) (api.CategoryInput, error) {
	fs := flag.NewFlagSet("admin category", flag.ContinueOnError)
	name := fs.String("name", "", "category name")
	slug := fs.String("slug", "", "url slug")
	parent := fs.String("parent", "", "parent category id")
	if err := fs.Parse(args); err != nil {
		return api.CategoryInput{}, err
	}
	return api.CategoryInput{Name: *name, Slug: *slug, ParentID: *parent}, nil
}
