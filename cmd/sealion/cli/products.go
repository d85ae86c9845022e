package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/view"
)

func (a *App) productsCmd(ctx context.Context, t *term, args []string) int {
	if len(args) == 0 {
		return t.usage("products", "expected list, create, update or delete")
	}
	switch args[0] {
	case "list":
		return a.productsList(ctx, t, args[1:])
	case "create":
		return a.productsCreate(ctx, t, args[1:])
	case "update":
		return a.productsUpdate(ctx, t, args[1:])
	case "delete":
		return a.productsDelete(ctx, t, args[1:])
	default:
		return t.usage("products", "unknown action %q", args[0])
	}
}

func (a *App) productsList(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "products list")
	search := fs.String("search", "", "filter by name, code or description")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	list := view.NewList(a.products.List)
	if err := list.Search(ctx, *search); err != nil {
		return t.fail("products list", err)
	}
	if *asJSON {
		return t.writeJSON("products list", list.Items())
	}
	if err := view.RenderList(t.out, list, productColumns, "No products found."); err != nil {
		return t.fail("products list", err)
	}
	return ExitOK
}

// productFlags registers the product form fields on fs.
type productFlags struct {
	code, name, description, price, image string
	stock                                 int
}

func (p *productFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.code, "code", "", "product code, generated when empty")
	fs.StringVar(&p.name, "name", "", "product name")
	fs.StringVar(&p.description, "description", "", "free text description")
	fs.StringVar(&p.price, "price", "", "unit price")
	fs.IntVar(&p.stock, "stock", 0, "opening stock")
	fs.StringVar(&p.image, "image", "", "path of an image file to upload")
}

func openImage(path string) (*products.Image, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	return &products.Image{Filename: filepath.Base(path), Content: f}, func() { _ = f.Close() }, nil
}

func (a *App) productsCreate(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "products create")
	var pf productFlags
	pf.register(fs)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	price, err := decimal.NewFromString(pf.price)
	if err != nil {
		return t.usage("products create", "--price must be a number")
	}
	image, closeImage, err := openImage(pf.image)
	if err != nil {
		return t.fail("products create", err)
	}
	defer closeImage()

	p, err := a.products.Create(ctx, products.CreateInput{
		Code:        pf.code,
		Name:        pf.name,
		Description: pf.description,
		Price:       price,
		Stock:       pf.stock,
		Image:       image,
	})
	if err != nil {
		return t.fail("products create", err)
	}
	t.printf("Created product %d (%s).\n", p.ID, p.Code)
	return ExitOK
}

func (a *App) productsUpdate(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "products update")
	var pf productFlags
	pf.register(fs)
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return ExitUsage
	}
	if len(positional) != 1 {
		return t.usage("products update", "expected one product id")
	}
	productID, err := parseID(positional[0])
	if err != nil {
		return t.usage("products update", "%v", err)
	}

	var in products.UpdateInput
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "code":
			in.Code = &pf.code
		case "name":
			in.Name = &pf.name
		case "description":
			in.Description = &pf.description
		case "price":
			price, err := decimal.NewFromString(pf.price)
			if err != nil {
				parseErr = fmt.Errorf("--price must be a number")
				return
			}
			in.Price = &price
		case "stock":
			in.Stock = &pf.stock
		}
	})
	if parseErr != nil {
		return t.usage("products update", "%v", parseErr)
	}
	image, closeImage, err := openImage(pf.image)
	if err != nil {
		return t.fail("products update", err)
	}
	defer closeImage()
	in.Image = image
	if in.Empty() {
		return t.usage("products update", "nothing to update")
	}

	p, err := a.products.Update(ctx, productID, in)
	if err != nil {
		return t.fail("products update", err)
	}
	t.printf("Updated product %d (%s).\n", p.ID, p.Code)
	return ExitOK
}

func (a *App) productsDelete(ctx context.Context, t *term, args []string) int {
	if len(args) != 1 {
		return t.usage("products delete", "expected one product id")
	}
	productID, err := parseID(args[0])
	if err != nil {
		return t.usage("products delete", "%v", err)
	}
	list := view.NewList(a.products.List)
	err = list.Mutate(ctx, func(ctx context.Context) error {
		return a.products.Delete(ctx, productID)
	})
	if err != nil {
		return t.fail("products delete", err)
	}
	t.printf("Deleted product %d.\n", productID)
	if err := view.RenderList(t.out, list, productColumns, "No products left."); err != nil {
		return t.fail("products delete", err)
	}
	return ExitOK
}
